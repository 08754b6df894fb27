package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type memorySink struct {
	blobs map[string][]byte
	err   error
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Put(ctx context.Context, name string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.blobs[name] = data
	return nil
}

func TestStageRecorder_CopiesAndFlushes(t *testing.T) {
	rec := NewStageRecorder("scan-1")
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Pix[0] = 10

	rec.ObserveStage("grayscale", img)
	img.Pix[0] = 200 // later stage mutates in place
	rec.ObserveStage("sharpened", img)

	if !reflect.DeepEqual(rec.Stages(), []string{"grayscale", "sharpened"}) {
		t.Fatalf("Unexpected stages: %v", rec.Stages())
	}

	sink := &memorySink{blobs: map[string][]byte{}}
	if err := rec.Flush(context.Background(), sink); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	data, ok := sink.blobs["scan-1/00-grayscale.png"]
	if !ok {
		t.Fatalf("Missing grayscale blob, got %v", len(sink.blobs))
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := decoded.(*image.Gray).Pix[0]; got != 10 {
		t.Errorf("Expected captured value 10, got %d", got)
	}
	if _, ok := sink.blobs["scan-1/01-sharpened.png"]; !ok {
		t.Error("Missing sharpened blob")
	}
	if len(rec.Stages()) != 0 {
		t.Error("Expected recorder to be empty after flush")
	}
}

func TestStageRecorder_FlushError(t *testing.T) {
	rec := NewStageRecorder("scan-2")
	rec.ObserveStage("grayscale", image.NewGray(image.Rect(0, 0, 1, 1)))

	sink := &memorySink{blobs: map[string][]byte{}, err: errors.New("offline")}
	if err := rec.Flush(context.Background(), sink); err == nil {
		t.Error("Expected flush error")
	}
}

func TestLocalSink_Put(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewLocalSink(dir)
	if err != nil {
		t.Fatalf("NewLocalSink() error = %v", err)
	}

	if err := sink.Put(context.Background(), "scan-1/00-grayscale.png", []byte("png")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "scan-1", "00-grayscale.png"))
	if err != nil || string(got) != "png" {
		t.Errorf("Expected file content, got %q (%v)", got, err)
	}

	if err := sink.Put(context.Background(), "../escape.png", nil); err == nil {
		t.Error("Expected traversal to be rejected")
	}
}

func TestNewLocalSink_EmptyDir(t *testing.T) {
	if _, err := NewLocalSink("  "); err == nil {
		t.Error("Expected error for empty directory")
	}
}

func TestNewAzureSink_InvalidKey(t *testing.T) {
	if _, err := NewAzureSink("account", "not base64!", "diag"); err == nil {
		t.Error("Expected error for non-base64 account key")
	}
}

func TestNewAzureSink(t *testing.T) {
	sink, err := NewAzureSink("account", "c2VjcmV0", "diag")
	if err != nil {
		t.Fatalf("NewAzureSink() error = %v", err)
	}
	if sink.Name() != "azure" {
		t.Errorf("Expected azure, got %s", sink.Name())
	}
	if _, ok := sink.(ContainerInitializer); !ok {
		t.Error("Expected azure sink to support container provisioning")
	}
}
