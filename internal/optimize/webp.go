package optimize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// WebPEncoder produces lossy WEBP bytes.
type WebPEncoder interface {
	EncodeWebP(ctx context.Context, img image.Image, quality int) ([]byte, error)
}

// Cwebp encodes through the cwebp tool from libwebp.
type Cwebp struct {
	Command string
}

// NewCwebp returns an encoder for command, defaulting to cwebp.
func NewCwebp(command string) Cwebp {
	if strings.TrimSpace(command) == "" {
		command = "cwebp"
	}
	return Cwebp{Command: command}
}

func (c Cwebp) EncodeWebP(ctx context.Context, img image.Image, quality int) ([]byte, error) {
	if _, err := exec.LookPath(c.Command); err != nil {
		return nil, fmt.Errorf("encode webp: %s not found. Install the libwebp tools.", c.Command)
	}

	dir, err := os.MkdirTemp("", "platter-webp-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.webp")

	var buf bytes.Buffer
	if err := (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("stage webp input: %w", err)
	}
	if err := os.WriteFile(in, buf.Bytes(), 0o600); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.Command, "-quiet", "-q", strconv.Itoa(quality), in, "-o", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w (%s)", c.Command, err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read webp output: %w", err)
	}
	return data, nil
}
