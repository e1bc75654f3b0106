package optimize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // registers the WEBP decoder

	"platter/pkg/imgutil"
)

// NativeCodec decodes and encodes with Go image packages. JPEG and PNG are
// encoded in-process; WEBP encoding is handed to the cwebp tool.
type NativeCodec struct {
	WebP WebPEncoder
}

// NewNativeCodec returns a codec that uses cwebpCommand for WEBP output.
func NewNativeCodec(cwebpCommand string) NativeCodec {
	return NativeCodec{WebP: NewCwebp(cwebpCommand)}
}

func (c NativeCodec) Probe(_ context.Context, data []byte) (Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, fmt.Errorf("decode header: %w", err)
	}
	meta := Metadata{Kind: imgutil.SniffBytes(data), Width: cfg.Width, Height: cfg.Height}
	if meta.Kind == imgutil.KindUnknown {
		return Metadata{}, fmt.Errorf("unsupported image format %q", format)
	}
	if swapsAxes(readOrientation(data)) {
		meta.Width, meta.Height = meta.Height, meta.Width
	}
	return meta, nil
}

func (c NativeCodec) Transform(ctx context.Context, data []byte, width int, profile Profile) ([]byte, error) {
	if profile.Format == imgutil.KindUnknown {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	img = applyOrientation(img, readOrientation(data))
	if width > 0 {
		img = resizeToWidth(img, width)
	}

	var out bytes.Buffer
	switch profile.Format {
	case imgutil.KindJPEG:
		// image/jpeg only writes baseline JPEG; Progressive and
		// OptimizeCoding are ignored here.
		if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: profile.Quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case imgutil.KindPNG:
		enc := png.Encoder{CompressionLevel: pngCompression(profile.CompressionLevel)}
		if profile.Palette {
			if p, ok := toPaletted(img); ok {
				img = p
			}
		}
		if err := enc.Encode(&out, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case imgutil.KindWebP:
		if c.WebP == nil {
			return nil, fmt.Errorf("encode webp: no encoder configured")
		}
		encoded, err := c.WebP.EncodeWebP(ctx, img, profile.Quality)
		if err != nil {
			return nil, err
		}
		return encoded, nil
	default:
		return data, nil
	}
	return out.Bytes(), nil
}

// resizeToWidth scales img down to width keeping its aspect ratio. Images
// already at or below width are returned unchanged.
func resizeToWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= width {
		return img
	}
	height := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	if height < 1 {
		height = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func pngCompression(level int) png.CompressionLevel {
	switch {
	case level >= 9:
		return png.BestCompression
	case level <= 0:
		return png.DefaultCompression
	case level <= 3:
		return png.BestSpeed
	default:
		return png.DefaultCompression
	}
}

// toPaletted converts img to a paletted image when it uses at most 256
// distinct colours, which keeps the conversion lossless.
func toPaletted(img image.Image) (*image.Paletted, bool) {
	if p, ok := img.(*image.Paletted); ok {
		return p, true
	}
	b := img.Bounds()
	index := make(map[color.NRGBA]uint8, 256)
	palette := make(color.Palette, 0, 256)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if _, ok := index[c]; ok {
				continue
			}
			if len(palette) == 256 {
				return nil, false
			}
			index[c] = uint8(len(palette))
			palette = append(palette, c)
		}
	}

	out := image.NewPaletted(b, palette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetColorIndex(x, y, index[c])
		}
	}
	return out, true
}
