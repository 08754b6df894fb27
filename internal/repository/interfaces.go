package repository

import (
	"context"

	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

// ScanRepository defines the interface for scan history access.
// Only summaries are stored: never the image or the extracted text.
type ScanRepository interface {
	// SaveScan stores a completed scan summary
	SaveScan(ctx context.Context, summary *models.ScanSummary) error

	// GetScan retrieves a stored summary by scan ID
	GetScan(ctx context.Context, id string) (*models.ScanSummary, error)

	// ListRecent returns up to limit summaries, newest first
	ListRecent(ctx context.Context, limit int) ([]models.ScanSummary, error)

	// Close releases the underlying connection
	Close() error
}
