package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %s", cfg.ServerAddress())
	}
	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Errorf("Expected 5MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.OCRTimeout != 20*time.Second {
		t.Errorf("Expected 20s OCR timeout, got %s", cfg.OCRTimeout)
	}
	if cfg.ThemeThreshold != 128 || cfg.StretchLow != 5 || cfg.StretchHigh != 95 {
		t.Errorf("Unexpected preprocessing defaults: %+v", cfg)
	}
	if cfg.DetectionMode != DetectionModeHeuristic {
		t.Errorf("Expected heuristic mode, got %s", cfg.DetectionMode)
	}
	if cfg.HistoryEnabled() {
		t.Error("Expected history to be disabled by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("THEME_THRESHOLD", "100.5")
	t.Setenv("DETECTION_MODE", "STRICT")
	t.Setenv("SCAN_HISTORY_DSN", "file::memory:")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.OCRTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.OCRTimeout)
	}
	if cfg.ThemeThreshold != 100.5 {
		t.Errorf("Expected 100.5, got %g", cfg.ThemeThreshold)
	}
	if cfg.DetectionMode != DetectionModeStrict {
		t.Errorf("Expected strict, got %s", cfg.DetectionMode)
	}
	if !cfg.HistoryEnabled() {
		t.Error("Expected history to be enabled")
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"negative upload", "MAX_UPLOAD_BYTES", "-1"},
		{"theme out of range", "THEME_THRESHOLD", "300"},
		{"inverted stretch", "STRETCH_LOW_PERCENTILE", "99"},
		{"unknown mode", "DETECTION_MODE", "fuzzy"},
		{"unknown sink", "DIAGNOSTICS_SINK", "s3"},
		{"azure without credentials", "DIAGNOSTICS_SINK", "azure"},
		{"zero ocr concurrency", "OCR_MAX_CONCURRENCY", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
