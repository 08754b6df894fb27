package transport

import (
	"encoding/base64"
	"strings"

	apperrors "github.com/anime-shed/codeshot-scanner/internal/errors"
)

// ParseDataURL splits a base64 data URL (data:image/png;base64,...) into its
// declared media type and decoded payload. A bare base64 string is accepted
// with an empty media type so the content sniffer decides.
func ParseDataURL(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil, apperrors.NewValidationError("no image data provided", nil)
	}

	mediaType := ""
	payload := s
	if strings.HasPrefix(s, "data:") {
		meta, rest, ok := strings.Cut(s[len("data:"):], ",")
		if !ok {
			return "", nil, apperrors.NewValidationError("malformed data URL", nil)
		}
		params := strings.Split(meta, ";")
		if params[len(params)-1] != "base64" {
			return "", nil, apperrors.NewValidationError("data URL must be base64 encoded", nil)
		}
		mediaType = strings.TrimSpace(params[0])
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some clipboard sources drop the padding
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return "", nil, apperrors.NewValidationError("invalid base64 image data", err)
		}
	}
	return mediaType, data, nil
}
