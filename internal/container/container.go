package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/codeshot-scanner/internal/config"
	"github.com/anime-shed/codeshot-scanner/internal/detector"
	"github.com/anime-shed/codeshot-scanner/internal/factory"
	"github.com/anime-shed/codeshot-scanner/internal/logger"
	"github.com/anime-shed/codeshot-scanner/internal/observer"
	"github.com/anime-shed/codeshot-scanner/internal/ocr"
	"github.com/anime-shed/codeshot-scanner/internal/preprocess"
	"github.com/anime-shed/codeshot-scanner/internal/repository"
	"github.com/anime-shed/codeshot-scanner/internal/service"
	"github.com/anime-shed/codeshot-scanner/internal/storage"
	"github.com/anime-shed/codeshot-scanner/internal/strategy"
	"github.com/anime-shed/codeshot-scanner/internal/transport"
	"github.com/anime-shed/codeshot-scanner/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	engine      ocr.Engine
	pool        *detector.WorkerPool
	publisher   *observer.EventPublisher
	metrics     *observer.MetricsObserver
	repository  repository.ScanRepository
	sink        storage.DiagnosticsSink
	validator   *validation.UploadValidator
	scanService service.ScanService
	handler     http.Handler
}

// Option overrides a component before the graph is built
type Option func(*options)

type options struct {
	engine ocr.Engine
}

// WithEngine replaces the OCR engine the factory would create
func WithEngine(engine ocr.Engine) Option {
	return func(o *options) { o.engine = engine }
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	components := factory.NewComponentFactory(cfg)

	engine := o.engine
	if engine == nil {
		var err error
		engine, err = components.EngineFactory.CreateEngine(factory.TesseractEngine)
		if err != nil {
			return nil, err
		}
	}

	c := &Container{config: cfg, engine: engine}

	if cfg.DetectionWorkers > 0 {
		c.pool = detector.NewWorkerPool(cfg.DetectionWorkers)
		c.pool.Start()
	}

	detection, err := strategy.NewDetectionStrategy(cfg.DetectionMode, c.pool)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.metrics = observer.NewMetricsObserver()
	c.publisher = observer.NewEventPublisher()
	c.publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	c.publisher.Subscribe(c.metrics)

	if cfg.HistoryEnabled() {
		repo, err := repository.NewSQLiteScanRepository(cfg.ScanHistoryDSN)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open scan history: %w", err)
		}
		c.repository = repo
	}

	sink, err := components.SinkFactory.CreateSink(context.Background(), cfg.DiagnosticsSink)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.sink = sink

	preOpts := preprocess.DefaultOptions().
		WithMaxBytes(cfg.MaxUploadBytes).
		WithMaxSourcePixels(cfg.MaxSourcePixels).
		WithMaxDimension(cfg.MaxImageDimension).
		WithThemeThreshold(cfg.ThemeThreshold).
		WithStretch(cfg.StretchLow, cfg.StretchHigh)

	ocrCfg := ocr.DefaultConfig()
	ocrCfg.Language = cfg.OCRLanguage
	ocrCfg.TessdataPrefix = cfg.TessdataPrefix

	pre := preprocess.New(preOpts, nil)
	deps := service.Dependencies{
		Preprocessor: pre,
		Engine:       engine,
		OCRConfig:    ocrCfg,
		OCRTimeout:   cfg.OCRTimeout,
		Detection:    strategy.NewDetectionContext(detection),
		Publisher:    c.publisher,
		Repository:   c.repository,
		Sink:         c.sink,
	}
	c.scanService = service.NewScanService(deps)
	c.validator = validation.NewUploadValidator(cfg.MaxUploadBytes)

	c.handler = transport.NewHandler(transport.Dependencies{
		Service:   c.scanService,
		Validator: c.validator,
		Stats:     &scanStats{metrics: c.metrics, pool: c.pool},
		Publisher: c.publisher,
		Config:    cfg,
	})

	limits := pre.Options()
	logger.WithFields(logrus.Fields{
		"detection":     detection.GetStrategyName(),
		"max_dimension": limits.MaxDimension,
		"max_bytes":     limits.MaxBytes,
	}).Info("Container initialized")
	return c, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// ScanService returns the scan pipeline
func (c *Container) ScanService() service.ScanService {
	return c.scanService
}

// Validator returns the upload validator
func (c *Container) Validator() *validation.UploadValidator {
	return c.validator
}

// Metrics returns the scan counters
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close stops the detection pool, releases the OCR engine and closes scan history
func (c *Container) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	var errs []error
	if closer, ok := c.engine.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if c.repository != nil {
		errs = append(errs, c.repository.Close())
	}
	return errors.Join(errs...)
}

// scanStats merges observer counters with detection pool stats
type scanStats struct {
	metrics *observer.MetricsObserver
	pool    *detector.WorkerPool
}

func (s *scanStats) GetMetrics() map[string]interface{} {
	m := s.metrics.GetMetrics()
	if s.pool != nil {
		m["detection_pool"] = s.pool.GetStats()
	}
	return m
}
