package ocr

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/apiv1"
	"google.golang.org/api/option"
)

// VisionEngine sends images to the Google Cloud Vision document-text API.
type VisionEngine struct {
	// CredentialsFile points at a service-account key. Empty falls back to
	// application default credentials.
	CredentialsFile string
}

func NewVisionEngine(credentialsFile string) *VisionEngine {
	return &VisionEngine{CredentialsFile: credentialsFile}
}

func (e *VisionEngine) Name() string { return EngineVision }

func (e *VisionEngine) Recognize(ctx context.Context, imagePath string) (Result, error) {
	var opts []option.ClientOption
	if e.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(e.CredentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return Result{Engine: EngineVision}, fmt.Errorf("vision client: %w", err)
	}
	defer func() { _ = client.Close() }()

	f, err := os.Open(imagePath)
	if err != nil {
		return Result{Engine: EngineVision}, err
	}
	defer func() { _ = f.Close() }()

	img, err := vision.NewImageFromReader(f)
	if err != nil {
		return Result{Engine: EngineVision}, fmt.Errorf("vision read image: %w", err)
	}

	annotation, err := client.DetectDocumentText(ctx, img, nil)
	if err != nil {
		return Result{Engine: EngineVision}, fmt.Errorf("vision detect: %w", err)
	}
	if annotation == nil {
		return Result{Engine: EngineVision}, nil
	}

	// mean block confidence across pages; the API reports it in [0,1] already
	var sum float32
	var n int
	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			sum += block.GetConfidence()
			n++
		}
	}
	conf := float32(0)
	if n > 0 {
		conf = sum / float32(n)
	}

	return Result{
		Text:       Normalize(annotation.GetText()),
		Confidence: conf,
		Engine:     EngineVision,
	}, nil
}
