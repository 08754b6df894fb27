package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anime-shed/codeshot-scanner/internal/logger"
	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

const maxListLimit = 100

// scanRecord is the persisted row for a ScanSummary
type scanRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	Source         string `gorm:"size:16"`
	ScanFactor     int
	IssuesFound    bool
	IssueTypes     string
	Theme          string `gorm:"size:8"`
	ProcessingTime float64
	CreatedAt      time.Time `gorm:"index"`
}

func (scanRecord) TableName() string { return "scan_summaries" }

func toRecord(s *models.ScanSummary) (*scanRecord, error) {
	types := s.IssueTypes
	if types == nil {
		types = []string{}
	}
	encoded, err := json.Marshal(types)
	if err != nil {
		return nil, fmt.Errorf("encode issue types: %w", err)
	}
	return &scanRecord{
		ID:             s.ID,
		Source:         s.Source,
		ScanFactor:     s.ScanFactor,
		IssuesFound:    s.IssuesFound,
		IssueTypes:     string(encoded),
		Theme:          s.Theme,
		ProcessingTime: s.ProcessingTime,
		CreatedAt:      s.CreatedAt,
	}, nil
}

func (r *scanRecord) toSummary() models.ScanSummary {
	types := []string{}
	if r.IssueTypes != "" {
		if err := json.Unmarshal([]byte(r.IssueTypes), &types); err != nil {
			logger.WithFields(logrus.Fields{"scan_id": r.ID, "error": err}).Warn("Corrupt issue types in scan history")
			types = []string{}
		}
	}
	return models.ScanSummary{
		ID:             r.ID,
		Source:         r.Source,
		ScanFactor:     r.ScanFactor,
		IssuesFound:    r.IssuesFound,
		IssueTypes:     types,
		Theme:          r.Theme,
		ProcessingTime: r.ProcessingTime,
		CreatedAt:      r.CreatedAt,
	}
}

// SQLiteScanRepository implements ScanRepository with gorm on sqlite
type SQLiteScanRepository struct {
	db     *gorm.DB
	closed atomic.Bool
}

// NewSQLiteScanRepository opens (or creates) the database at dsn and migrates it
func NewSQLiteScanRepository(dsn string) (*SQLiteScanRepository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %w", ErrRepositoryUnavailable, dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: get sql.DB: %w", ErrRepositoryUnavailable, err)
	}
	// sqlite serialises writers; one connection also keeps :memory: databases alive
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&scanRecord{}); err != nil {
		return nil, fmt.Errorf("%w: migrate scan history: %w", ErrRepositoryUnavailable, err)
	}

	logger.WithField("dsn", dsn).Info("Scan history initialized")
	return &SQLiteScanRepository{db: db}, nil
}

// SaveScan stores a completed scan summary
func (r *SQLiteScanRepository) SaveScan(ctx context.Context, summary *models.ScanSummary) error {
	if summary == nil || summary.ID == "" {
		return errors.New("scan summary must have an id")
	}
	if r.closed.Load() {
		return ErrRepositoryUnavailable
	}
	rec, err := toRecord(summary)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save scan %s: %w", summary.ID, err)
	}
	return nil
}

// GetScan retrieves a stored summary by scan ID
func (r *SQLiteScanRepository) GetScan(ctx context.Context, id string) (*models.ScanSummary, error) {
	if r.closed.Load() {
		return nil, ErrRepositoryUnavailable
	}
	var rec scanRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	summary := rec.toSummary()
	return &summary, nil
}

// ListRecent returns up to limit summaries, newest first
func (r *SQLiteScanRepository) ListRecent(ctx context.Context, limit int) ([]models.ScanSummary, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if r.closed.Load() {
		return nil, ErrRepositoryUnavailable
	}
	var recs []scanRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	out := make([]models.ScanSummary, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toSummary())
	}
	return out, nil
}

// Close releases the underlying connection
func (r *SQLiteScanRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
