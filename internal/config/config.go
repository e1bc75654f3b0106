package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration. Every field is optional; missing values
// keep their defaults.
type File struct {
	LogFormat string   `toml:"log_format" yaml:"log_format"`
	Heic      Heic     `toml:"heic" yaml:"heic"`
	Optimize  Optimize `toml:"optimize" yaml:"optimize"`
}

// Heic configures one HEIC migration run.
type Heic struct {
	ImagesRoot string   `toml:"images_root" yaml:"images_root"`
	Extensions []string `toml:"extensions" yaml:"extensions"`
	Converter  string   `toml:"converter" yaml:"converter"`
	DryRun     bool     `toml:"dry_run" yaml:"dry_run"`
	Overwrite  bool     `toml:"overwrite" yaml:"overwrite"`
	Verbose    bool     `toml:"verbose" yaml:"verbose"`
	CheckOnly  bool     `toml:"-" yaml:"-"`
}

// Optimize configures one image optimization run.
type Optimize struct {
	Root        string   `toml:"root" yaml:"root"`
	MaxWidth    int      `toml:"max_width" yaml:"max_width"`
	JPEGQuality int      `toml:"jpeg_quality" yaml:"jpeg_quality"`
	PNGQuality  int      `toml:"png_quality" yaml:"png_quality"`
	WebPQuality int      `toml:"webp_quality" yaml:"webp_quality"`
	Ignore      []string `toml:"ignore" yaml:"ignore"`
	Files       []string `toml:"-" yaml:"-"`
	FileList    string   `toml:"-" yaml:"-"`
	Cwebp       string   `toml:"cwebp" yaml:"cwebp"`
	DryRun      bool     `toml:"dry_run" yaml:"dry_run"`
	Verbose     bool     `toml:"verbose" yaml:"verbose"`
}

// Load reads path on top of Default. An empty path returns the defaults.
// The decoder is picked from the extension: .toml, .yml or .yaml.
func Load(path string) (File, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	default:
		return cfg, fmt.Errorf("config %s: unsupported format (want .toml, .yml or .yaml)", path)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (f *File) normalize() {
	d := Default()
	if strings.TrimSpace(f.Heic.ImagesRoot) == "" {
		f.Heic.ImagesRoot = d.Heic.ImagesRoot
	}
	if len(f.Heic.Extensions) == 0 {
		f.Heic.Extensions = d.Heic.Extensions
	}
	f.Heic.Extensions = NormalizeExtensions(f.Heic.Extensions)
	if strings.TrimSpace(f.Heic.Converter) == "" {
		f.Heic.Converter = d.Heic.Converter
	}
	if strings.TrimSpace(f.Optimize.Root) == "" {
		f.Optimize.Root = d.Optimize.Root
	}
	if strings.TrimSpace(f.Optimize.Cwebp) == "" {
		f.Optimize.Cwebp = d.Optimize.Cwebp
	}
}

// NormalizeExtensions lowercases entries and gives each a leading dot.
func NormalizeExtensions(list []string) []string {
	out := make([]string, 0, len(list))
	for _, ext := range list {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
