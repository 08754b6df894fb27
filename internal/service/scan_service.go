package service

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/codeshot-scanner/internal/errors"
	"github.com/anime-shed/codeshot-scanner/internal/logger"
	"github.com/anime-shed/codeshot-scanner/internal/observer"
	"github.com/anime-shed/codeshot-scanner/internal/ocr"
	"github.com/anime-shed/codeshot-scanner/internal/preprocess"
	"github.com/anime-shed/codeshot-scanner/internal/report"
	"github.com/anime-shed/codeshot-scanner/internal/repository"
	"github.com/anime-shed/codeshot-scanner/internal/storage"
	"github.com/anime-shed/codeshot-scanner/internal/strategy"
	"github.com/anime-shed/codeshot-scanner/internal/textnorm"
	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

// Upload sources
const (
	SourceFile  = "file"
	SourcePaste = "paste"
	SourceCLI   = "cli"
)

const defaultOCRTimeout = 20 * time.Second

// ScanOptions tunes a single scan
type ScanOptions struct {
	Source       string
	ExpectedText string
	// Language and OCRTimeout override the service defaults when set
	Language   string
	OCRTimeout time.Duration
}

// ScanService defines the scan pipeline and scan history access
type ScanService interface {
	// Scan runs preprocess, OCR, normalization, detection and report building
	Scan(ctx context.Context, raw models.RawImage, opts ScanOptions) (*models.ScanResult, error)

	// GetScan returns a persisted summary
	GetScan(ctx context.Context, id string) (*models.ScanSummary, error)

	// ListScans returns recent persisted summaries, newest first
	ListScans(ctx context.Context, limit int) ([]models.ScanSummary, error)

	// HistoryEnabled reports whether summaries are persisted
	HistoryEnabled() bool
}

// Dependencies wires a scanService. Publisher, Repository and Sink are optional.
type Dependencies struct {
	Preprocessor *preprocess.Preprocessor
	Engine       ocr.Engine
	OCRConfig    ocr.Config
	OCRTimeout   time.Duration
	Detection    *strategy.DetectionContext
	Publisher    observer.Subject
	Repository   repository.ScanRepository
	Sink         storage.DiagnosticsSink
}

type scanService struct {
	preprocessor *preprocess.Preprocessor
	engine       ocr.Engine
	ocrConfig    ocr.Config
	ocrTimeout   time.Duration
	detection    *strategy.DetectionContext
	publisher    observer.Subject
	repo         repository.ScanRepository
	sink         storage.DiagnosticsSink
}

// NewScanService creates a new scan service
func NewScanService(deps Dependencies) ScanService {
	timeout := deps.OCRTimeout
	if timeout <= 0 {
		timeout = defaultOCRTimeout
	}
	return &scanService{
		preprocessor: deps.Preprocessor,
		engine:       deps.Engine,
		ocrConfig:    deps.OCRConfig,
		ocrTimeout:   timeout,
		detection:    deps.Detection,
		publisher:    deps.Publisher,
		repo:         deps.Repository,
		sink:         deps.Sink,
	}
}

// Scan runs the full pipeline. A preprocessing or OCR failure aborts the
// scan; no partial report is returned.
func (s *scanService) Scan(ctx context.Context, raw models.RawImage, opts ScanOptions) (*models.ScanResult, error) {
	start := time.Now()
	scanID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{
		"scan_id": scanID,
		"source":  opts.Source,
		"bytes":   raw.Size(),
	})

	s.publish(ctx, observer.ScanEvent{EventType: observer.ScanStarted, ScanID: scanID, Source: opts.Source})

	var recorder *storage.StageRecorder
	var stageObserver preprocess.StageObserver
	if s.sink != nil {
		recorder = storage.NewStageRecorder(scanID)
		stageObserver = recorder
	}
	defer func() {
		if recorder == nil {
			return
		}
		if err := recorder.Flush(context.WithoutCancel(ctx), s.sink); err != nil {
			log.WithError(err).Warn("Failed to write diagnostics")
		}
	}()

	pre, err := s.preprocessor.ProcessWithObserver(raw, stageObserver)
	if err != nil {
		return nil, s.fail(ctx, scanID, opts, start, err)
	}
	log.WithFields(logrus.Fields{
		"theme":          pre.Theme,
		"mean_luminance": pre.MeanLuminance,
		"width":          pre.Image.Rect.Dx(),
		"height":         pre.Image.Rect.Dy(),
	}).Debug("Image preprocessed")

	ocrResult, err := s.recognize(ctx, pre.Image, opts)
	if err != nil {
		return nil, s.fail(ctx, scanID, opts, start, err)
	}

	text := textnorm.Normalize(ocrResult.Text)
	findings := s.detection.ExecuteDetection(text)
	scanReport := report.Build(ocrResult, findings)

	result := &models.ScanResult{
		ScanReport:        scanReport,
		ID:                scanID,
		Theme:             string(pre.Theme),
		Timestamp:         start.UTC(),
		ProcessingTimeSec: time.Since(start).Seconds(),
	}
	if opts.ExpectedText != "" {
		acc := ocr.MeasureAccuracy(textnorm.Normalize(opts.ExpectedText), text)
		result.Accuracy = &models.OCRAccuracy{
			ExpectedText: opts.ExpectedText,
			WER:          acc.WER,
			CER:          acc.CER,
		}
	}

	issueTypes := make([]string, 0, len(scanReport.Issues))
	for _, f := range scanReport.Issues {
		issueTypes = append(issueTypes, string(f.Type))
	}

	if s.repo != nil {
		summary := &models.ScanSummary{
			ID:             scanID,
			Source:         opts.Source,
			ScanFactor:     scanReport.ScanFactor,
			IssuesFound:    scanReport.IssuesFound,
			IssueTypes:     issueTypes,
			Theme:          result.Theme,
			ProcessingTime: result.ProcessingTimeSec,
			CreatedAt:      result.Timestamp,
		}
		if err := s.repo.SaveScan(context.WithoutCancel(ctx), summary); err != nil {
			log.WithError(err).Error("Failed to save scan summary")
		}
	}

	s.publish(ctx, observer.ScanEvent{
		EventType:      observer.ScanCompleted,
		ScanID:         scanID,
		Source:         opts.Source,
		ProcessingTime: time.Since(start),
		Success:        true,
		IssueTypes:     issueTypes,
		Metadata: map[string]interface{}{
			"scan_factor":   scanReport.ScanFactor,
			"theme":         result.Theme,
			"detection":     s.detection.GetCurrentStrategy(),
			"ocr_engine":    s.engine.Name(),
			"issues_found":  scanReport.IssuesFound,
			"finding_count": len(scanReport.Issues),
		},
	})
	return result, nil
}

// recognize runs OCR under its own deadline and maps every failure to ocr_failed
func (s *scanService) recognize(ctx context.Context, img *image.Gray, opts ScanOptions) (ocr.Result, error) {
	timeout := s.ocrTimeout
	if opts.OCRTimeout > 0 {
		timeout = opts.OCRTimeout
	}
	cfg := s.ocrConfig
	if opts.Language != "" {
		cfg.Language = opts.Language
	}

	ocrCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.engine.Recognize(ocrCtx, img, cfg)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return ocr.Result{}, err
		}
		return ocr.Result{}, apperrors.NewOCRFailedError("text extraction failed", err)
	}
	return res, nil
}

func (s *scanService) fail(ctx context.Context, scanID string, opts ScanOptions, start time.Time, err error) error {
	errorType := string(apperrors.ErrorTypeInternal)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		errorType = string(appErr.Type)
	}
	s.publish(ctx, observer.ScanEvent{
		EventType:      observer.ScanFailed,
		ScanID:         scanID,
		Source:         opts.Source,
		ProcessingTime: time.Since(start),
		ErrorType:      errorType,
		ErrorMessage:   err.Error(),
	})
	return err
}

func (s *scanService) publish(ctx context.Context, event observer.ScanEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now()
	s.publisher.NotifyObservers(ctx, event)
}

// GetScan returns a persisted summary
func (s *scanService) GetScan(ctx context.Context, id string) (*models.ScanSummary, error) {
	if s.repo == nil {
		return nil, apperrors.NewNotFoundError("scan history is disabled", nil)
	}
	summary, err := s.repo.GetScan(ctx, id)
	if errors.Is(err, repository.ErrScanNotFound) {
		return nil, apperrors.NewNotFoundError("scan not found", err)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load scan", err)
	}
	return summary, nil
}

// ListScans returns recent persisted summaries, newest first
func (s *scanService) ListScans(ctx context.Context, limit int) ([]models.ScanSummary, error) {
	if s.repo == nil {
		return nil, apperrors.NewNotFoundError("scan history is disabled", nil)
	}
	scans, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list scans", err)
	}
	return scans, nil
}

// HistoryEnabled reports whether summaries are persisted
func (s *scanService) HistoryEnabled() bool {
	return s.repo != nil
}
