package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Parser   ParserConfig
	Ingest   IngestConfig
}

// DatabaseConfig selects and tunes the invoice store.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

type ServerConfig struct {
	HTTPAddr string
}

// OCRConfig configures the recognition engines.
type OCRConfig struct {
	TesseractLangs  string // tesseract notation, e.g. "isl+eng"
	TessdataDir     string
	HeicConverter   string // heif-convert | magick | sips
	VisionCreds     string // service-account key file; empty disables Vision
	EngineTimeout   time.Duration
	UploadCacheDir  string
}

// ParserConfig tunes the VAT extraction heuristics.
type ParserConfig struct {
	DictionaryDir      string // extra term dictionaries, *.json
	TaxTailRatio       string // decimal, e.g. "0.6"
	AssumedRatePercent string // decimal, e.g. "24"
}

// IngestConfig enables the hot-folder watcher when WatchDirs is non-empty.
type IngestConfig struct {
	WatchDirs   []string
	InitialScan bool
	Debounce    time.Duration
	Workers     int
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "sqlite"),
			DSN:              getEnv("DB_URL", "vatscan.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			TesseractLangs: getEnv("TESSERACT_LANGS", "isl+eng"),
			TessdataDir:    getEnv("TESSDATA_PREFIX", ""),
			HeicConverter:  getEnv("HEIC_CONVERTER", "magick"),
			VisionCreds:    getEnv("VISION_CREDENTIALS_FILE", ""),
			EngineTimeout:  getEnvAsDuration("OCR_ENGINE_TIMEOUT", 30*time.Second),
			UploadCacheDir: getEnv("UPLOAD_CACHE_DIR", "./tmp"),
		},
		Parser: ParserConfig{
			DictionaryDir:      getEnv("DICTIONARY_DIR", ""),
			TaxTailRatio:       getEnv("TAX_TAIL_RATIO", ""),
			AssumedRatePercent: getEnv("ASSUMED_RATE_PERCENT", ""),
		},
		Ingest: IngestConfig{
			WatchDirs:   splitEnvList(os.Getenv("WATCH_DIRS")),
			InitialScan: getEnv("WATCH_INITIAL_SCAN", "true") == "true",
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
			Workers:     int(getEnvAsInt32("SCAN_WORKERS", 4)),
		},
	}
}

func splitEnvList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.OCR.HeicConverter {
	case "heif-convert", "magick", "sips":
	default:
		return NewAppError("CONFIG_ERROR", "HEIC_CONVERTER must be heif-convert, magick or sips", ErrInvalidInput)
	}
	return nil
}
