package config

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Detection modes
const (
	DetectionModeHeuristic = "heuristic"
	DetectionModeStrict    = "strict"
)

// Diagnostics sinks
const (
	DiagnosticsSinkNone  = "none"
	DiagnosticsSinkLocal = "local"
	DiagnosticsSinkAzure = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	OCRTimeout         time.Duration
	MaxUploadBytes     int64
	MaxRequestBodySize int64
	LogLevel           string

	// Preprocessing
	MaxImageDimension int
	MaxSourcePixels   int64
	ThemeThreshold    float64
	StretchLow        float64
	StretchHigh       float64

	// OCR
	OCRLanguage       string
	OCRMaxConcurrency int
	TessdataPrefix    string

	// Detection
	DetectionMode    string
	DetectionWorkers int

	// Diagnostics
	DiagnosticsSink       string
	DiagnosticsDir        string
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureStorageContainer string

	// Scan history; empty disables it
	ScanHistoryDSN string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// HistoryEnabled reports whether scan summaries should be persisted
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.ScanHistoryDSN) != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		OCRTimeout:         parseDurationOrDefault("OCR_TIMEOUT", 20*time.Second),
		MaxUploadBytes:     parseIntOrDefault("MAX_UPLOAD_BYTES", 5*1024*1024),      // 5MB
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 8*1024*1024), // base64 paste overhead
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),

		MaxImageDimension: int(parseIntOrDefault("MAX_IMAGE_DIMENSION", 2048)),
		MaxSourcePixels:   parseIntOrDefault("MAX_SOURCE_PIXELS", 40_000_000),
		ThemeThreshold:    parseFloatOrDefault("THEME_THRESHOLD", 128),
		StretchLow:        parseFloatOrDefault("STRETCH_LOW_PERCENTILE", 5),
		StretchHigh:       parseFloatOrDefault("STRETCH_HIGH_PERCENTILE", 95),

		OCRLanguage:       getEnvOrDefault("OCR_LANGUAGE", "eng"),
		OCRMaxConcurrency: int(parseIntOrDefault("OCR_MAX_CONCURRENCY", int64(runtime.NumCPU()))),
		TessdataPrefix:    os.Getenv("TESSDATA_PREFIX"),

		DetectionMode:    strings.ToLower(getEnvOrDefault("DETECTION_MODE", DetectionModeHeuristic)),
		DetectionWorkers: int(parseIntOrDefault("DETECTION_WORKERS", 0)),

		DiagnosticsSink:       strings.ToLower(getEnvOrDefault("DIAGNOSTICS_SINK", DiagnosticsSinkNone)),
		DiagnosticsDir:        getEnvOrDefault("DIAGNOSTICS_DIR", "./diagnostics"),
		AzureStorageAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureStorageContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "scan-diagnostics"),

		ScanHistoryDSN: os.Getenv("SCAN_HISTORY_DSN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0 (got %d)", c.MaxUploadBytes)
	}
	if c.MaxRequestBodySize < c.MaxUploadBytes {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be >= MAX_UPLOAD_BYTES (got %d < %d)",
			c.MaxRequestBodySize, c.MaxUploadBytes)
	}
	if c.RequestTimeout <= 0 || c.OCRTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, ocr=%s)", c.RequestTimeout, c.OCRTimeout)
	}
	if c.MaxImageDimension <= 0 || c.MaxSourcePixels <= 0 {
		return fmt.Errorf("image limits must be > 0 (got dimension=%d, pixels=%d)", c.MaxImageDimension, c.MaxSourcePixels)
	}
	if c.ThemeThreshold < 0 || c.ThemeThreshold > 255 {
		return fmt.Errorf("THEME_THRESHOLD must be within [0,255] (got %g)", c.ThemeThreshold)
	}
	if c.StretchLow < 0 || c.StretchHigh > 100 || c.StretchLow >= c.StretchHigh {
		return fmt.Errorf("invalid stretch percentiles: low=%g high=%g", c.StretchLow, c.StretchHigh)
	}
	if c.OCRMaxConcurrency < 1 {
		return fmt.Errorf("OCR_MAX_CONCURRENCY must be >= 1 (got %d)", c.OCRMaxConcurrency)
	}
	if c.DetectionWorkers < 0 {
		return fmt.Errorf("DETECTION_WORKERS must be >= 0 (got %d)", c.DetectionWorkers)
	}
	switch c.DetectionMode {
	case DetectionModeHeuristic, DetectionModeStrict:
	default:
		return fmt.Errorf("unknown DETECTION_MODE: %q", c.DetectionMode)
	}
	switch c.DiagnosticsSink {
	case DiagnosticsSinkNone, DiagnosticsSinkLocal:
	case DiagnosticsSinkAzure:
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("DIAGNOSTICS_SINK=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return fmt.Errorf("unknown DIAGNOSTICS_SINK: %q", c.DiagnosticsSink)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
