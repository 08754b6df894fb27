package repository

import "errors"

var (
	// ErrScanNotFound indicates the scan summary was not found
	ErrScanNotFound = errors.New("scan not found")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
