package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanEvent represents a scan pipeline event
type ScanEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ScanID         string                 `json:"scan_id"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorType      string                 `json:"error_type,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	IssueTypes     []string               `json:"issue_types,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of scan event
type EventType string

const (
	// ScanStarted when a validated image enters the pipeline
	ScanStarted EventType = "scan_started"
	// ScanCompleted when a report was produced
	ScanCompleted EventType = "scan_completed"
	// ScanFailed when preprocessing or OCR aborted the scan
	ScanFailed EventType = "scan_failed"
	// UploadRejected when an upload failed validation
	UploadRejected EventType = "upload_rejected"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ScanEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ScanEvent)
}

// LoggingObserver logs scan events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles scan events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ScanEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"scan_id":         event.ScanID,
		"source":          event.Source,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
		fields["error_type"] = event.ErrorType
	}
	if len(event.IssueTypes) > 0 {
		fields["issue_types"] = event.IssueTypes
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case ScanStarted:
		o.logger.WithFields(fields).Debug("Scan started")
	case ScanCompleted:
		o.logger.WithFields(fields).Info("Scan completed")
	case ScanFailed:
		o.logger.WithFields(fields).Error("Scan failed")
	case UploadRejected:
		o.logger.WithFields(fields).Warn("Upload rejected")
	default:
		o.logger.WithFields(fields).Info("Scan event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from scan events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalScans          int64
	successfulScans     int64
	failedScans         int64
	rejectedUploads     int64
	scansWithIssues     int64
	issuesByType        map[string]int64
	failuresByType      map[string]int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		issuesByType:   make(map[string]int64),
		failuresByType: make(map[string]int64),
	}
}

// OnEvent handles scan events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ScanEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ScanStarted:
		o.totalScans++
	case ScanCompleted:
		o.successfulScans++
		o.totalProcessingTime += event.ProcessingTime
		if len(event.IssueTypes) > 0 {
			o.scansWithIssues++
		}
		for _, t := range event.IssueTypes {
			o.issuesByType[t]++
		}
	case ScanFailed:
		o.failedScans++
		if event.ErrorType != "" {
			o.failuresByType[event.ErrorType]++
		}
	case UploadRejected:
		o.rejectedUploads++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulScans > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulScans)
	}

	issues := make(map[string]int64, len(o.issuesByType))
	for k, v := range o.issuesByType {
		issues[k] = v
	}
	failures := make(map[string]int64, len(o.failuresByType))
	for k, v := range o.failuresByType {
		failures[k] = v
	}

	return map[string]interface{}{
		"total_scans":           o.totalScans,
		"successful_scans":      o.successfulScans,
		"failed_scans":          o.failedScans,
		"rejected_uploads":      o.rejectedUploads,
		"scans_with_issues":     o.scansWithIssues,
		"issues_by_type":        issues,
		"failures_by_type":      failures,
		"total_processing_time": o.totalProcessingTime.String(),
		"avg_processing_time":   avgProcessingTime.String(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event. Observers run on
// their own goroutines and outlive the request context.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ScanEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	detached := context.WithoutCancel(ctx)

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(detached, event)
		}(observer)
	}
}
