package models

// PasteRequest carries a clipboard image as a base64 data URL
type PasteRequest struct {
	ImageData    string `json:"imageData" binding:"required"`
	ExpectedText string `json:"expectedText,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HistoryResponse lists recently persisted scans
type HistoryResponse struct {
	Scans []ScanSummary `json:"scans"`
	Count int           `json:"count"`
}
