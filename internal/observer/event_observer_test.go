package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type channelObserver struct {
	name   string
	events chan ScanEvent
}

func (o *channelObserver) OnEvent(ctx context.Context, event ScanEvent) {
	o.events <- event
}

func (o *channelObserver) GetObserverName() string { return o.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event ScanEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                      { return "panicking" }

func TestMetricsObserver_Counters(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, ScanEvent{EventType: ScanStarted})
	m.OnEvent(ctx, ScanEvent{EventType: ScanStarted})
	m.OnEvent(ctx, ScanEvent{EventType: ScanStarted})
	m.OnEvent(ctx, ScanEvent{EventType: ScanCompleted, ProcessingTime: 2 * time.Second, IssueTypes: []string{"Password", "API Key"}})
	m.OnEvent(ctx, ScanEvent{EventType: ScanCompleted, ProcessingTime: 4 * time.Second})
	m.OnEvent(ctx, ScanEvent{EventType: ScanFailed, ErrorType: "ocr_failed"})
	m.OnEvent(ctx, ScanEvent{EventType: UploadRejected})

	metrics := m.GetMetrics()
	checks := map[string]int64{
		"total_scans":       3,
		"successful_scans":  2,
		"failed_scans":      1,
		"rejected_uploads":  1,
		"scans_with_issues": 1,
	}
	for k, want := range checks {
		if metrics[k] != want {
			t.Errorf("Expected %s=%d, got %v", k, want, metrics[k])
		}
	}
	if metrics["avg_processing_time"] != "3s" {
		t.Errorf("Expected avg 3s, got %v", metrics["avg_processing_time"])
	}
	issues := metrics["issues_by_type"].(map[string]int64)
	if issues["Password"] != 1 || issues["API Key"] != 1 {
		t.Errorf("Unexpected issue counts: %v", issues)
	}
	failures := metrics["failures_by_type"].(map[string]int64)
	if failures["ocr_failed"] != 1 {
		t.Errorf("Unexpected failure counts: %v", failures)
	}
}

func TestEventPublisher_NotifyAndUnsubscribe(t *testing.T) {
	p := NewEventPublisher()
	obs := &channelObserver{name: "chan", events: make(chan ScanEvent, 4)}
	p.Subscribe(panickingObserver{})
	p.Subscribe(obs)

	ctx, cancel := context.WithCancel(context.Background())
	p.NotifyObservers(ctx, ScanEvent{EventType: ScanCompleted, ScanID: "abc"})
	cancel()

	select {
	case ev := <-obs.events:
		if ev.ScanID != "abc" {
			t.Errorf("Expected scan id abc, got %s", ev.ScanID)
		}
		if ev.Timestamp.IsZero() {
			t.Error("Expected timestamp to be filled in")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Observer was not notified")
	}

	p.Unsubscribe(obs)
	p.NotifyObservers(context.Background(), ScanEvent{EventType: ScanStarted})
	select {
	case ev := <-obs.events:
		t.Errorf("Unsubscribed observer received %v", ev.EventType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoggingObserver_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	o := NewLoggingObserver(l)
	o.OnEvent(context.Background(), ScanEvent{
		EventType:    ScanFailed,
		ScanID:       "scan-1",
		Source:       "file",
		ErrorType:    "image_decode",
		ErrorMessage: "bad bytes",
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected one JSON log line, got %q", buf.String())
	}
	if entry["level"] != "error" || entry["scan_id"] != "scan-1" || entry["error_type"] != "image_decode" {
		t.Errorf("Unexpected log entry: %v", entry)
	}
}
