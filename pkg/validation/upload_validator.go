package validation

import (
	"fmt"
	"mime"
	"strings"

	"github.com/h2non/filetype"

	apperrors "github.com/anime-shed/codeshot-scanner/internal/errors"
	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

// sniffLen is the header size filetype needs to classify every format it knows
const sniffLen = 262

// UploadValidator gates screenshots before any decoding happens
type UploadValidator struct {
	maxBytes     int64
	allowedTypes []string
}

// NewUploadValidator accepts JPEG and PNG up to maxBytes
func NewUploadValidator(maxBytes int64) *UploadValidator {
	return NewUploadValidatorWithOptions(maxBytes, []string{models.MIMETypeJPEG, models.MIMETypePNG})
}

// NewUploadValidatorWithOptions creates a validator with a custom type list
func NewUploadValidatorWithOptions(maxBytes int64, allowedTypes []string) *UploadValidator {
	return &UploadValidator{
		maxBytes:     maxBytes,
		allowedTypes: allowedTypes,
	}
}

// MaxBytes returns the configured size limit
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks size, declared type and the sniffed content type.
// The returned RawImage carries the sniffed MIME type.
func (v *UploadValidator) ValidateUpload(declaredType string, data []byte) (models.RawImage, error) {
	if len(data) == 0 {
		return models.RawImage{}, apperrors.NewValidationError("no image data provided", nil)
	}
	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		return models.RawImage{}, apperrors.NewImageTooLargeError(
			fmt.Sprintf("file size %d exceeds limit of %d bytes", len(data), v.maxBytes), nil)
	}

	declared := normalizeMIME(declaredType)
	if declared != "" && declared != "application/octet-stream" && !v.isTypeAllowed(declared) {
		return models.RawImage{}, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("only JPEG and PNG images are allowed, got %s", declared), nil)
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return models.RawImage{}, apperrors.NewUnsupportedMediaError("unrecognised file content", err)
	}
	sniffed := kind.MIME.Value
	if !v.isTypeAllowed(sniffed) {
		return models.RawImage{}, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("only JPEG and PNG images are allowed, content is %s", sniffed), nil)
	}
	if declared != "" && declared != "application/octet-stream" && declared != sniffed {
		return models.RawImage{}, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("declared type %s does not match content %s", declared, sniffed), nil)
	}

	return models.RawImage{Data: data, MIMEType: sniffed}, nil
}

// isTypeAllowed checks if the MIME type is in the allowed list
func (v *UploadValidator) isTypeAllowed(mimeType string) bool {
	for _, allowed := range v.allowedTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// normalizeMIME lower-cases, drops parameters and folds image/jpg into image/jpeg
func normalizeMIME(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	declared = strings.ToLower(declared)
	if declared == "image/jpg" || declared == "image/pjpeg" {
		return models.MIMETypeJPEG
	}
	return declared
}
