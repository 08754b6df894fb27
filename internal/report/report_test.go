package report

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/anime-shed/codeshot-scanner/internal/ocr"
	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

func TestScanFactor(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       int
	}{
		{"zero", 0, 0},
		{"rounds half up", 86.5, 87},
		{"rounds down", 86.4, 86},
		{"full", 100, 100},
		{"above range", 140, 100},
		{"below range", -3, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanFactor(tt.confidence)
			if got != tt.want {
				t.Errorf("ScanFactor(%v) = %d, want %d", tt.confidence, got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("ScanFactor out of bounds: %d", got)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	findings := []models.SecurityFinding{
		{Type: models.PatternPassword, Severity: models.SeverityCritical, MatchCount: 3},
		{Type: models.PatternAWSAccessKey, Severity: models.SeverityCritical, MatchCount: 1},
	}

	r := Build(ocr.Result{Text: "x", Confidence: 91.2}, findings)
	if r.ScanFactor != 91 {
		t.Errorf("Expected 91, got %d", r.ScanFactor)
	}
	if !r.IssuesFound || len(r.Issues) != 2 {
		t.Fatalf("Expected 2 issues, got %+v", r)
	}
	if r.Issues[0].Type != models.PatternPassword {
		t.Error("Expected findings to keep their order")
	}
}

func TestBuild_EmptyText(t *testing.T) {
	r := Build(ocr.Result{Text: "", Confidence: 0}, nil)
	if r.IssuesFound {
		t.Error("Expected no issues")
	}
	if r.ScanFactor != 0 {
		t.Errorf("Expected scan factor 0, got %d", r.ScanFactor)
	}

	body, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(string(body), `"issues":[]`) {
		t.Errorf("Expected issues to serialise as an empty array, got %s", body)
	}
}
