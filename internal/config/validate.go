package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (f File) Validate() error {
	switch strings.ToLower(strings.TrimSpace(f.LogFormat)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", f.LogFormat)
	}
	if err := f.Heic.Validate(); err != nil {
		return err
	}
	return f.Optimize.Validate()
}

// Validate ensures the HEIC options are usable.
func (h Heic) Validate() error {
	if strings.TrimSpace(h.ImagesRoot) == "" {
		return errors.New("heic.images_root must be set")
	}
	if strings.TrimSpace(h.Converter) == "" {
		return errors.New("heic.converter must be set")
	}
	return nil
}

// Validate ensures the optimizer options are usable.
func (o Optimize) Validate() error {
	if strings.TrimSpace(o.Root) == "" {
		return errors.New("optimize.root must be set")
	}
	if o.MaxWidth <= 0 {
		return fmt.Errorf("Invalid max width: %d", o.MaxWidth)
	}
	for _, q := range []struct {
		name  string
		value int
	}{
		{"jpeg quality", o.JPEGQuality},
		{"png quality", o.PNGQuality},
		{"webp quality", o.WebPQuality},
	} {
		if q.value <= 0 {
			return fmt.Errorf("Invalid %s: %d", q.name, q.value)
		}
	}
	return nil
}

// ParsePositive parses a numeric command-line value. Non-finite and
// non-positive values are rejected.
func ParsePositive(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("Invalid %s: %s", name, raw)
	}
	return v, nil
}

// Quality rounds v into the 1..100 range encoders accept.
func Quality(v float64) int {
	q := int(math.Round(v))
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
