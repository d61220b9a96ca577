package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/solvi-app/vatscan/internal/async"
	"github.com/solvi-app/vatscan/internal/common"
	"github.com/solvi-app/vatscan/internal/export"
	"github.com/solvi-app/vatscan/internal/ingest"
	"github.com/solvi-app/vatscan/internal/ocr"
	"github.com/solvi-app/vatscan/internal/pipeline"
	"github.com/solvi-app/vatscan/internal/repository"
	"github.com/solvi-app/vatscan/internal/server"
	"github.com/solvi-app/vatscan/internal/terms"
	"github.com/solvi-app/vatscan/internal/vat"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	set := terms.DefaultSet()
	if cfg.Parser.DictionaryDir != "" {
		if err := set.LoadDir(cfg.Parser.DictionaryDir, logger); err != nil {
			logger.Error("failed to load dictionaries", "dir", cfg.Parser.DictionaryDir, "error", err)
			os.Exit(1)
		}
	}
	engine := vat.NewEngine(set, vatConfig(cfg.Parser, logger), logger)

	engines := []ocr.Engine{newTesseract(cfg.OCR)}
	if cfg.OCR.VisionCreds != "" {
		engines = append(engines, ocr.NewVisionEngine(cfg.OCR.VisionCreds))
	} else {
		logger.Warn("vision engine disabled, running single-engine", "reason", "VISION_CREDENTIALS_FILE not set")
	}
	runner := ocr.NewDualRunner(engines, cfg.OCR.EngineTimeout, logger)
	converter := ocr.NewConverter(cfg.OCR.HeicConverter)

	if err := os.MkdirAll(cfg.OCR.UploadCacheDir, 0o755); err != nil {
		logger.Error("failed to create upload dir", "dir", cfg.OCR.UploadCacheDir, "error", err)
		os.Exit(1)
	}

	processor := pipeline.NewProcessor(runner, converter, engine, repo, logger)
	exporter := export.NewService(repo, logger)
	srv := server.New(processor, repo, exporter, cfg.OCR.UploadCacheDir, logger)

	var queue *async.ScanQueue
	if len(cfg.Ingest.WatchDirs) > 0 {
		queue = async.NewScanQueue(processor, logger, async.WithWorkers(cfg.Ingest.Workers))
		events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Ingest.WatchDirs,
			InitialScan: cfg.Ingest.InitialScan,
			Debounce:    cfg.Ingest.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to start watcher", "dirs", cfg.Ingest.WatchDirs, "error", err)
			os.Exit(1)
		}
		go func() {
			for path := range events {
				_ = queue.Enqueue(ctx, async.Job{ImagePath: path})
			}
		}()
		logger.Info("watching for invoices", "dirs", cfg.Ingest.WatchDirs)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("vatscand listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func openStore(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (repository.InvoiceRepository, func(), error) {
	switch cfg.Driver {
	case "postgres":
		s, err := repository.OpenPostgres(ctx, repository.PostgresConfig{
			DSN:              cfg.DSN,
			MaxConns:         cfg.MaxConns,
			MinConns:         cfg.MinConns,
			MaxConnLifetime:  cfg.MaxConnLifetime,
			MaxConnIdleTime:  cfg.MaxConnIdleTime,
			DialTimeout:      cfg.DialTimeout,
			StatementTimeout: cfg.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := s.HealthCheck(ctx, 5*time.Second); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := repository.OpenSQLite(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

func newTesseract(cfg common.OCRConfig) *ocr.TesseractEngine {
	eng := ocr.NewTesseractEngine(cfg.TesseractLangs)
	eng.TessdataDir = cfg.TessdataDir
	return eng
}

// vatConfig applies the optional heuristic overrides; malformed values fall
// back to the defaults with a warning.
func vatConfig(cfg common.ParserConfig, logger *slog.Logger) vat.Config {
	out := vat.Config{}
	if cfg.TaxTailRatio != "" {
		if v, err := decimal.NewFromString(cfg.TaxTailRatio); err == nil {
			out.TaxTailRatio = v
		} else {
			logger.Warn("ignoring TAX_TAIL_RATIO", "value", cfg.TaxTailRatio, "error", err)
		}
	}
	if cfg.AssumedRatePercent != "" {
		if v, err := decimal.NewFromString(cfg.AssumedRatePercent); err == nil {
			out.AssumedRatePercent = v
		} else {
			logger.Warn("ignoring ASSUMED_RATE_PERCENT", "value", cfg.AssumedRatePercent, "error", err)
		}
	}
	return out
}
