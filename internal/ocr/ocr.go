// Package ocr wraps the two text-recognition back ends behind one Engine
// interface. To the rest of the system an engine is a black box: image path
// in, raw text plus a mean confidence out.
package ocr

import "context"

// Engine identifiers, reported on results and stored with invoice records.
const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
)

// Result is one engine's raw output for an image.
type Result struct {
	Text       string
	Confidence float32 // mean confidence in [0,1]
	Engine     string
}

// Engine recognizes text in an image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (Result, error)
}
