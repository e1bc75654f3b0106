package optimize

import (
	"image"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	"golang.org/x/image/draw"
)

// readOrientation returns the EXIF orientation (1-8) or 1 when absent.
func readOrientation(data []byte) int {
	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 1
	}
	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return 1
	}

	orientation := 0
	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		v := orientationValue(tag.Value, tag.FormattedFirst)
		if v == 0 {
			continue
		}
		// IFD0 describes the main image; IFD1 only the thumbnail.
		if tag.IfdPath == "IFD" {
			orientation = v
			break
		}
		if orientation == 0 {
			orientation = v
		}
	}
	if orientation < 1 || orientation > 8 {
		return 1
	}
	return orientation
}

func orientationValue(value any, formatted string) int {
	switch v := value.(type) {
	case []uint16:
		if len(v) > 0 {
			return int(v[0])
		}
	case uint16:
		return int(v)
	}
	n, err := strconv.Atoi(strings.TrimSpace(formatted))
	if err != nil {
		return 0
	}
	return n
}

// swapsAxes reports whether orientation o turns the image on its side.
func swapsAxes(o int) bool {
	return o >= 5 && o <= 8
}

// applyOrientation rotates or flips img so it displays upright.
func applyOrientation(img image.Image, o int) image.Image {
	if o <= 1 || o > 8 {
		return img
	}

	b := img.Bounds()
	src := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if swapsAxes(o) {
		dw, dh = h, w
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			var sx, sy int
			switch o {
			case 2:
				sx, sy = w-1-x, y
			case 3:
				sx, sy = w-1-x, h-1-y
			case 4:
				sx, sy = x, h-1-y
			case 5:
				sx, sy = y, x
			case 6:
				sx, sy = y, h-1-x
			case 7:
				sx, sy = w-1-y, h-1-x
			case 8:
				sx, sy = w-1-y, x
			}
			si := src.PixOffset(sx, sy)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}
