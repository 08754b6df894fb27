package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/anime-shed/codeshot-scanner/internal/config"
	"github.com/anime-shed/codeshot-scanner/internal/logger"
	"github.com/anime-shed/codeshot-scanner/internal/ocr"
	"github.com/anime-shed/codeshot-scanner/internal/ocr/tesseract"
	"github.com/anime-shed/codeshot-scanner/internal/storage"
)

// EngineType represents different OCR backends
type EngineType string

const (
	// TesseractEngine runs OCR through the tesseract C API
	TesseractEngine EngineType = "tesseract"
)

// EngineFactory creates OCR engines
type EngineFactory interface {
	CreateEngine(engineType EngineType) (ocr.Engine, error)
}

// SinkFactory creates diagnostics sinks
type SinkFactory interface {
	// CreateSink returns nil, nil for the "none" sink
	CreateSink(ctx context.Context, sinkType string) (storage.DiagnosticsSink, error)
}

// engineFactory implements EngineFactory
type engineFactory struct {
	maxConcurrent int
}

// NewEngineFactory creates a new engine factory
func NewEngineFactory(maxConcurrent int) EngineFactory {
	return &engineFactory{maxConcurrent: maxConcurrent}
}

// CreateEngine creates an engine based on the specified type
func (f *engineFactory) CreateEngine(engineType EngineType) (ocr.Engine, error) {
	switch engineType {
	case TesseractEngine, "":
		return tesseract.NewEngine(f.maxConcurrent), nil
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", engineType)
	}
}

// sinkFactory implements SinkFactory
type sinkFactory struct {
	cfg *config.Config
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg *config.Config) SinkFactory {
	return &sinkFactory{cfg: cfg}
}

// CreateSink creates a diagnostics sink based on the specified type
func (f *sinkFactory) CreateSink(ctx context.Context, sinkType string) (storage.DiagnosticsSink, error) {
	var (
		sink storage.DiagnosticsSink
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(sinkType)) {
	case config.DiagnosticsSinkNone, "":
		return nil, nil
	case config.DiagnosticsSinkLocal:
		sink, err = storage.NewLocalSink(f.cfg.DiagnosticsDir)
	case config.DiagnosticsSinkAzure:
		sink, err = storage.NewAzureSink(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.AzureStorageContainer)
	default:
		return nil, fmt.Errorf("unsupported diagnostics sink: %s", sinkType)
	}
	if err != nil {
		return nil, err
	}

	if ci, ok := sink.(storage.ContainerInitializer); ok {
		if err := ci.EnsureContainer(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare %s sink: %w", sink.Name(), err)
		}
	}

	logger.WithField("sink", sink.Name()).Info("Diagnostics sink enabled")
	return sink, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	EngineFactory EngineFactory
	SinkFactory   SinkFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		EngineFactory: NewEngineFactory(cfg.OCRMaxConcurrency),
		SinkFactory:   NewSinkFactory(cfg),
	}
}
