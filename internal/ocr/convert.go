package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Converter turns phone-camera HEIC/HEIF files into PNGs the engines accept.
// The actual conversion is delegated to an external tool.
type Converter struct {
	// Tool is one of "heif-convert", "magick" or "sips".
	Tool   string
	runner Runner
}

func NewConverter(tool string) *Converter {
	return &Converter{Tool: tool, runner: execRunner{}}
}

// ConvertHEIC writes a temporary PNG and returns its path together with a
// cleanup func. cleanup is non-nil even on error once the temp dir exists.
func (c *Converter) ConvertHEIC(ctx context.Context, in string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "vatscan-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	switch c.Tool {
	case "heif-convert":
		if _, errb, err2 := c.runner.Run(ctx, "heif-convert", in, out); err2 != nil {
			return "", cleanup, fmt.Errorf("heif-convert: %w (%s)", err2, truncate(string(errb), 512))
		}
	case "magick":
		if _, errb, err2 := c.runner.Run(ctx, "magick", in, out); err2 != nil {
			return "", cleanup, fmt.Errorf("magick: %w (%s)", err2, truncate(string(errb), 512))
		}
	case "sips":
		if _, errb, err2 := c.runner.Run(ctx, "sips", "-s", "format", "png", in, "--out", out); err2 != nil {
			return "", cleanup, fmt.Errorf("sips: %w (%s)", err2, truncate(string(errb), 512))
		}
	default:
		return "", cleanup, fmt.Errorf("HEIC not supported: converter must be one of heif-convert, magick, sips; got %q", c.Tool)
	}

	if _, statErr := os.Stat(out); statErr != nil {
		return "", cleanup, fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}
	return out, cleanup, nil
}
