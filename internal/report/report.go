// Package report assembles the externally visible scan report.
package report

import (
	"math"

	"github.com/anime-shed/codeshot-scanner/internal/ocr"
	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

// ScanFactor converts an OCR confidence into a whole percentage in [0,100]
func ScanFactor(confidence float64) int {
	if math.IsNaN(confidence) {
		return 0
	}
	rounded := math.Round(confidence)
	switch {
	case rounded < 0:
		return 0
	case rounded > 100:
		return 100
	}
	return int(rounded)
}

// Build combines the OCR result and findings. Findings are kept as given.
func Build(result ocr.Result, findings []models.SecurityFinding) models.ScanReport {
	issues := findings
	if issues == nil {
		issues = []models.SecurityFinding{}
	}
	return models.ScanReport{
		ScanFactor:  ScanFactor(result.Confidence),
		Issues:      issues,
		IssuesFound: len(issues) > 0,
	}
}
