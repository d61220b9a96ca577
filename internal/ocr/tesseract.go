package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs a local Tesseract instance through gosseract.
type TesseractEngine struct {
	// Languages in tesseract notation, e.g. "isl+eng". Empty means "eng".
	Languages string
	// TessdataDir overrides the traineddata location when set.
	TessdataDir string
}

func NewTesseractEngine(languages string) *TesseractEngine {
	if languages == "" {
		languages = "eng"
	}
	return &TesseractEngine{Languages: languages}
}

func (e *TesseractEngine) Name() string { return EngineTesseract }

// Recognize OCRs a single image. Receipts are one narrow column of text,
// which is what PSM_SINGLE_BLOCK assumes.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{Engine: EngineTesseract}, err
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(strings.Split(e.Languages, "+")...); err != nil {
		return Result{Engine: EngineTesseract}, fmt.Errorf("tesseract language %q: %w", e.Languages, err)
	}
	if e.TessdataDir != "" {
		if err := client.SetTessdataPrefix(e.TessdataDir); err != nil {
			return Result{Engine: EngineTesseract}, fmt.Errorf("tessdata dir %q: %w", e.TessdataDir, err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return Result{Engine: EngineTesseract}, err
	}
	if err := client.SetImage(imagePath); err != nil {
		return Result{Engine: EngineTesseract}, fmt.Errorf("tesseract set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{Engine: EngineTesseract}, fmt.Errorf("tesseract: %w", err)
	}

	text = Normalize(text)
	return Result{
		Text:       text,
		Confidence: heuristicConfidence(text),
		Engine:     EngineTesseract,
	}, nil
}
