package config

const (
	DefaultImagesRoot = "assets/images"
	DefaultMaxWidth   = 1600
	DefaultQuality    = 82
	DefaultConverter  = "heif-convert"
	DefaultCwebp      = "cwebp"
)

// DefaultRewriteExtensions lists the text formats whose image references are
// rewritten after a HEIC conversion.
var DefaultRewriteExtensions = []string{
	".yml", ".yaml", ".md", ".markdown", ".html", ".json",
	".liquid", ".scss", ".css", ".js", ".xml",
}

// Default returns the built-in configuration.
func Default() File {
	exts := make([]string, len(DefaultRewriteExtensions))
	copy(exts, DefaultRewriteExtensions)
	return File{
		LogFormat: "console",
		Heic: Heic{
			ImagesRoot: DefaultImagesRoot,
			Extensions: exts,
			Converter:  DefaultConverter,
		},
		Optimize: Optimize{
			Root:        DefaultImagesRoot,
			MaxWidth:    DefaultMaxWidth,
			JPEGQuality: DefaultQuality,
			PNGQuality:  DefaultQuality,
			WebPQuality: DefaultQuality,
			Cwebp:       DefaultCwebp,
		},
	}
}
