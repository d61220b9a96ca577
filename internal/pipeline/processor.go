// Package pipeline coordinates a scan end to end: image conversion, the two
// OCR engines, VAT extraction, arbitration and persistence.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/solvi-app/vatscan/constants"
	"github.com/solvi-app/vatscan/internal/common"
	"github.com/solvi-app/vatscan/internal/entity"
	"github.com/solvi-app/vatscan/internal/invoice"
	"github.com/solvi-app/vatscan/internal/ocr"
	"github.com/solvi-app/vatscan/internal/repository"
	"github.com/solvi-app/vatscan/internal/terms"
	"github.com/solvi-app/vatscan/internal/vat"
)

// ErrNoText means every engine failed or timed out for the image.
var ErrNoText = errors.New("no engine produced text")

// OCRRunner is what the processor needs from the OCR layer.
type OCRRunner interface {
	Run(ctx context.Context, imagePath string) []ocr.Result
}

// HEICConverter converts phone-camera formats before OCR.
type HEICConverter interface {
	ConvertHEIC(ctx context.Context, in string) (string, func(), error)
}

// Processor owns the scan flow. It is safe for concurrent use.
type Processor struct {
	runner    OCRRunner
	converter HEICConverter
	engine    *vat.Engine
	repo      repository.InvoiceRepository
	logger    *slog.Logger
}

func NewProcessor(runner OCRRunner, converter HEICConverter, engine *vat.Engine, repo repository.InvoiceRepository, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{runner: runner, converter: converter, engine: engine, repo: repo, logger: logger}
}

// ProcessImage scans one image and stores the resulting invoice record.
// originalPath is kept on the record even when a converted copy was scanned.
func (p *Processor) ProcessImage(ctx context.Context, imagePath string) (*entity.InvoiceRecord, error) {
	path := imagePath
	if constants.IsHEICExt(filepath.Ext(path)) {
		out, cleanup, err := p.converter.ConvertHEIC(ctx, path)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			p.logger.Error("pipeline.convert.failed", "path", imagePath, "error", err)
			return nil, common.WrapError(err, "convert heic image")
		}
		path = out
	}

	results := p.runner.Run(ctx, path)
	if len(results) == 0 {
		p.logger.Error("pipeline.ocr.failed", "path", imagePath)
		return nil, ErrNoText
	}

	candidates := make([]vat.Candidate, len(results))
	for i, res := range results {
		candidates[i] = vat.Candidate{
			Extraction:       p.engine.Parse(res.Text),
			EngineConfidence: res.Confidence,
		}
	}

	final := candidates[0].Extraction
	if len(candidates) > 1 {
		final = vat.Arbitrate(candidates[0], candidates[1])
	}
	final = p.engine.CorrectImplausibleTax(final)

	// header fields come from the most confident engine's text
	best := results[0]
	for _, res := range results[1:] {
		if res.Confidence > best.Confidence {
			best = res
		}
	}
	fields := invoice.Parse(best.Text, final)

	rec := buildRecord(imagePath, results, final, fields)
	if err := p.repo.Create(ctx, rec); err != nil {
		p.logger.Error("pipeline.store.failed", "path", imagePath, "error", err)
		return nil, common.WrapError(err, "store invoice record")
	}

	p.logger.Info("pipeline.scan.ok",
		"id", rec.ID,
		"path", imagePath,
		"engines", rec.SourceEngine,
		"language", rec.DetectedLanguage,
		"currency", rec.CurrencyCode,
	)
	return rec, nil
}

func buildRecord(imagePath string, results []ocr.Result, x vat.Extraction, fields invoice.ParsedInvoice) *entity.InvoiceRecord {
	rec := &entity.InvoiceRecord{
		Vendor:           fields.Vendor,
		InvoiceNumber:    fields.InvoiceNumber,
		InvoiceDate:      fields.Date,
		RateBreakdown:    x.RateBreakdown,
		DetectedLanguage: x.DetectedLanguage,
		DetectedCountry:  x.DetectedCountry,
		ImagePath:        imagePath,
	}

	names := make([]string, len(results))
	for i, res := range results {
		names[i] = res.Engine
		if res.Confidence > rec.Confidence {
			rec.Confidence = res.Confidence
		}
	}
	rec.SourceEngine = strings.Join(names, "+")

	if x.Subtotal != nil {
		v := x.Subtotal.Amount
		rec.Net = &v
		rec.CurrencyCode = x.Subtotal.Currency
	}
	if x.Tax != nil {
		v := x.Tax.Amount
		rec.Tax = &v
		rec.CurrencyCode = x.Tax.Currency
	}
	if x.Total != nil {
		v := x.Total.Amount
		rec.Total = &v
		rec.CurrencyCode = x.Total.Currency
	}
	if rec.CurrencyCode == "" {
		rec.CurrencyCode = terms.DefaultCurrency
	}
	return rec
}
