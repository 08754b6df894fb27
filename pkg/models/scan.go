package models

import "time"

// Supported upload content types
const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
)

// RawImage is an uploaded screenshot exactly as the caller delivered it
type RawImage struct {
	Data     []byte
	MIMEType string
}

// Size returns the payload size in bytes
func (r RawImage) Size() int64 {
	return int64(len(r.Data))
}

// PatternType names the category of secret a detector flags
type PatternType string

const (
	PatternAWSAccessKey PatternType = "AWS Access Key"
	PatternAWSSecretKey PatternType = "AWS Secret Key"
	PatternDatabase     PatternType = "Database Credentials"
	PatternPassword     PatternType = "Password"
	PatternPrivateKey   PatternType = "Private Key"
	PatternAPIKey       PatternType = "API Key"
	PatternAPIKeyToken  PatternType = "API Key/Token"
	PatternEnvSecret    PatternType = "Environment Secret"
	PatternIPAddress    PatternType = "IP Address"
	PatternEmailAddress PatternType = "Email Address"
)

// Severity grades how damaging a leak of the matched value would be
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// SecurityFinding aggregates every match of one detector within a scan
type SecurityFinding struct {
	Type        PatternType `json:"type"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	MatchCount  int         `json:"matchCount"`
}

// ScanReport is the sole externally visible output of the scan pipeline
type ScanReport struct {
	ScanFactor  int               `json:"scanFactor"`
	Issues      []SecurityFinding `json:"issues"`
	IssuesFound bool              `json:"issuesFound"`
}

// OCRAccuracy compares the OCR output against caller-supplied expected text
type OCRAccuracy struct {
	ExpectedText string  `json:"expectedText"`
	WER          float64 `json:"wordErrorRate"`
	CER          float64 `json:"characterErrorRate"`
}

// ScanResult wraps a ScanReport with per-request metadata
type ScanResult struct {
	ScanReport

	ID                string       `json:"id"`
	Theme             string       `json:"theme"`
	Timestamp         time.Time    `json:"timestamp"`
	ProcessingTimeSec float64      `json:"processingTimeSec"`
	Accuracy          *OCRAccuracy `json:"ocrAccuracy,omitempty"`
}

// ScanSummary is the persisted shape of a completed scan.
// It never carries the image or the extracted text.
type ScanSummary struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	ScanFactor     int       `json:"scanFactor"`
	IssuesFound    bool      `json:"issuesFound"`
	IssueTypes     []string  `json:"issueTypes"`
	Theme          string    `json:"theme"`
	ProcessingTime float64   `json:"processingTimeSec"`
	CreatedAt      time.Time `json:"createdAt"`
}
