package heic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrConverterMissing is returned by Probe when the converter cannot run.
var ErrConverterMissing = errors.New("converter not available")

// Converter turns one HEIC/HEIF file into a JPEG.
type Converter interface {
	Name() string
	Probe(ctx context.Context) error
	Convert(ctx context.Context, src, dst string) error
}

// HeifConvert drives the heif-convert tool from libheif-examples.
type HeifConvert struct {
	Command string
}

// NewHeifConvert returns a converter for command, defaulting to heif-convert.
func NewHeifConvert(command string) HeifConvert {
	if strings.TrimSpace(command) == "" {
		command = "heif-convert"
	}
	return HeifConvert{Command: command}
}

func (h HeifConvert) Name() string { return h.Command }

// Probe runs "<command> --version" and discards its output.
func (h HeifConvert) Probe(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, h.Command, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s not found. Install libheif-examples.", ErrConverterMissing, h.Command)
	}
	return nil
}

// Convert runs "<command> src dst".
func (h HeifConvert) Convert(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, h.Command, src, dst)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(out.String())
		if detail != "" {
			return fmt.Errorf("%s: %w (%s)", h.Command, err, detail)
		}
		return fmt.Errorf("%s: %w", h.Command, err)
	}
	return nil
}
