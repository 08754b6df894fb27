package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/codeshot-scanner/internal/config"
	apperrors "github.com/anime-shed/codeshot-scanner/internal/errors"
	"github.com/anime-shed/codeshot-scanner/internal/logger"
	"github.com/anime-shed/codeshot-scanner/internal/observer"
	"github.com/anime-shed/codeshot-scanner/internal/service"
	"github.com/anime-shed/codeshot-scanner/pkg/models"
	"github.com/anime-shed/codeshot-scanner/pkg/validation"
)

const (
	uploadField       = "screenshot"
	defaultHistoryLen = 20
)

// StatsProvider exposes scan counters for the stats endpoint
type StatsProvider interface {
	GetMetrics() map[string]interface{}
}

// Dependencies wires the HTTP handler. Stats and Publisher are optional.
type Dependencies struct {
	Service   service.ScanService
	Validator *validation.UploadValidator
	Stats     StatsProvider
	Publisher observer.Subject
	Config    *config.Config
}

func NewHandler(deps Dependencies) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(deps.Config.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)

	api := r.Group("/api")
	api.POST("/upload/file", uploadFile(deps))
	api.POST("/upload/paste", uploadPaste(deps))
	api.GET("/stats", stats(deps))
	api.GET("/scans", listScans(deps))
	api.GET("/scans/:id", getScan(deps))

	return r
}

func uploadFile(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile(uploadField)
		if err != nil {
			rejectUpload(c, deps, service.SourceFile, uploadReadError("no image file provided", err))
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to open upload", err)
			return
		}
		defer f.Close()

		// one extra byte lets the validator see an oversize file
		data, err := io.ReadAll(io.LimitReader(f, deps.Validator.MaxBytes()+1))
		if err != nil {
			rejectUpload(c, deps, service.SourceFile, uploadReadError("failed to read upload", err))
			return
		}

		raw, err := deps.Validator.ValidateUpload(fh.Header.Get("Content-Type"), data)
		if err != nil {
			rejectUpload(c, deps, service.SourceFile, err)
			return
		}

		runScan(c, deps, raw, service.ScanOptions{
			Source:       service.SourceFile,
			ExpectedText: c.PostForm("expectedText"),
			Language:     c.PostForm("lang"),
		})
	}
}

func uploadPaste(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PasteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rejectUpload(c, deps, service.SourcePaste, uploadReadError("invalid request format", err))
			return
		}

		declared, data, err := ParseDataURL(req.ImageData)
		if err != nil {
			rejectUpload(c, deps, service.SourcePaste, err)
			return
		}

		raw, err := deps.Validator.ValidateUpload(declared, data)
		if err != nil {
			rejectUpload(c, deps, service.SourcePaste, err)
			return
		}

		runScan(c, deps, raw, service.ScanOptions{
			Source:       service.SourcePaste,
			ExpectedText: req.ExpectedText,
		})
	}
}

func runScan(c *gin.Context, deps Dependencies, raw models.RawImage, opts service.ScanOptions) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.RequestTimeout)
	defer cancel()

	// Log request start
	logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
		"source":     opts.Source,
		"bytes":      raw.Size(),
	}).Info("Processing scan request")

	result, err := deps.Service.Scan(ctx, raw, opts)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "scan failed", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"scan_id":            result.ID,
		"source":             opts.Source,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
		"scan_factor":        result.ScanFactor,
		"issues_found":       result.IssuesFound,
	}).Info("Scan completed successfully")

	c.JSON(http.StatusOK, result)
}

func stats(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Stats == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, deps.Stats.GetMetrics())
	}
}

func listScans(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultHistoryLen
		if q := c.Query("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n <= 0 {
				err = apperrors.NewValidationError("limit must be a positive integer", err)
				respondError(c, apperrors.GetStatusCode(err), "invalid query", err)
				return
			}
			limit = n
		}

		scans, err := deps.Service.ListScans(c.Request.Context(), limit)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to list scans", err)
			return
		}
		c.JSON(http.StatusOK, models.HistoryResponse{Scans: scans, Count: len(scans)})
	}
}

func getScan(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := deps.Service.GetScan(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to load scan", err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// rejectUpload answers a failed upload and publishes it for the metrics
func rejectUpload(c *gin.Context, deps Dependencies, source string, err error) {
	if deps.Publisher != nil {
		errorType := string(apperrors.ErrorTypeValidation)
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			errorType = string(appErr.Type)
		}
		deps.Publisher.NotifyObservers(c.Request.Context(), observer.ScanEvent{
			EventType:    observer.UploadRejected,
			Timestamp:    time.Now(),
			Source:       source,
			ErrorType:    errorType,
			ErrorMessage: err.Error(),
		})
	}
	respondError(c, apperrors.GetStatusCode(err), "upload rejected", err)
}

// uploadReadError maps body read failures, treating an exhausted size limiter as too large
func uploadReadError(message string, err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.NewImageTooLargeError(
			fmt.Sprintf("request body exceeds limit of %d bytes", maxErr.Limit), err)
	}
	return apperrors.NewValidationError(message, err)
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
