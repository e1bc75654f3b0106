package optimize

import (
	"context"

	"platter/internal/config"
	"platter/pkg/imgutil"
)

// Metadata describes an image after its EXIF orientation is applied.
type Metadata struct {
	Kind   imgutil.Kind
	Width  int
	Height int
}

// Profile is a format-specific encoding recipe.
type Profile struct {
	Format            imgutil.Kind
	Quality           int
	Progressive       bool
	OptimizeCoding    bool
	CompressionLevel  int
	AdaptiveFiltering bool
	Palette           bool
}

// Codec is the image-processing capability the optimizer needs.
type Codec interface {
	// Probe reads dimensions, accounting for rotation metadata.
	Probe(ctx context.Context, data []byte) (Metadata, error)
	// Transform auto-orients, shrinks to width when width > 0 (never
	// enlarging) and re-encodes with profile. Unknown formats pass through.
	Transform(ctx context.Context, data []byte, width int, profile Profile) ([]byte, error)
}

// ProfileFor builds the encoding profile for a file based on its extension.
func ProfileFor(path string, cfg config.Optimize) Profile {
	switch kind := imgutil.KindFromExt(path); kind {
	case imgutil.KindJPEG:
		return Profile{Format: kind, Quality: cfg.JPEGQuality, Progressive: true, OptimizeCoding: true}
	case imgutil.KindPNG:
		return Profile{Format: kind, Quality: cfg.PNGQuality, CompressionLevel: 9, AdaptiveFiltering: true, Palette: true}
	case imgutil.KindWebP:
		return Profile{Format: kind, Quality: cfg.WebPQuality}
	default:
		return Profile{Format: imgutil.KindUnknown}
	}
}
