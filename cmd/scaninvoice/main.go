// scaninvoice runs the full pipeline on an image file, or on every image
// under a directory, and prints the stored records as JSON. Useful for trying
// out dictionaries and heuristics locally.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/solvi-app/vatscan/internal/common"
	"github.com/solvi-app/vatscan/internal/ingest"
	"github.com/solvi-app/vatscan/internal/ocr"
	"github.com/solvi-app/vatscan/internal/pipeline"
	"github.com/solvi-app/vatscan/internal/repository"
	"github.com/solvi-app/vatscan/internal/terms"
	"github.com/solvi-app/vatscan/internal/vat"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "scaninvoice <image-or-directory>")
		os.Exit(2)
	}
	target := os.Args[1]
	info, err := os.Stat(target)
	if err != nil {
		logger.Error("cannot read path", "path", target, "error", err)
		os.Exit(2)
	}

	paths := []string{target}
	if info.IsDir() {
		if paths, err = ingest.ListImages(target); err != nil {
			logger.Error("list images", "path", target, "error", err)
			os.Exit(1)
		}
		if len(paths) == 0 {
			logger.Error("no images found", "path", target)
			os.Exit(1)
		}
	}

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := repository.OpenSQLite(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	set := terms.DefaultSet()
	if cfg.Parser.DictionaryDir != "" {
		if err := set.LoadDir(cfg.Parser.DictionaryDir, logger); err != nil {
			logger.Error("load dictionaries", "dir", cfg.Parser.DictionaryDir, "error", err)
			os.Exit(1)
		}
	}
	engine := vat.NewEngine(set, vat.Config{}, logger)

	tess := ocr.NewTesseractEngine(cfg.OCR.TesseractLangs)
	tess.TessdataDir = cfg.OCR.TessdataDir
	engines := []ocr.Engine{tess}
	if cfg.OCR.VisionCreds != "" {
		engines = append(engines, ocr.NewVisionEngine(cfg.OCR.VisionCreds))
	}
	runner := ocr.NewDualRunner(engines, cfg.OCR.EngineTimeout, logger)
	converter := ocr.NewConverter(cfg.OCR.HeicConverter)

	p := pipeline.NewProcessor(runner, converter, engine, store, logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	failed := 0
	for _, imagePath := range paths {
		start := time.Now()
		rec, err := p.ProcessImage(ctx, imagePath)
		if err != nil {
			logger.Error("scan failed", "path", imagePath, "error", err,
				"duration_ms", time.Since(start).Milliseconds())
			failed++
			continue
		}
		logger.Info("scan ok", "id", rec.ID, "path", imagePath,
			"duration_ms", time.Since(start).Milliseconds())
		if err := enc.Encode(rec); err != nil {
			logger.Error("encode record", "error", err)
			os.Exit(1)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
