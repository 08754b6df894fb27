// Package storage persists preprocessing diagnostics for offline tuning.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/codeshot-scanner/internal/logger"
)

// DiagnosticsSink stores named blobs
type DiagnosticsSink interface {
	Put(ctx context.Context, name string, data []byte) error
	Name() string
}

// ContainerInitializer is implemented by sinks that need provisioning
type ContainerInitializer interface {
	EnsureContainer(ctx context.Context) error
}

type localSink struct {
	dir string
}

// NewLocalSink writes diagnostics under dir
func NewLocalSink(dir string) (DiagnosticsSink, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("diagnostics directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create diagnostics directory: %w", err)
	}
	return &localSink{dir: dir}, nil
}

func (s *localSink) Name() string { return "local" }

func (s *localSink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("invalid diagnostics name %q", name)
	}
	target := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}
	return os.WriteFile(target, data, 0o644)
}

type capturedStage struct {
	stage string
	img   *image.Gray
}

// StageRecorder captures preprocessing stages of one scan and writes them
// as PNG files named <scanID>/<n>-<stage>.png
type StageRecorder struct {
	scanID string
	mu     sync.Mutex
	stages []capturedStage
}

// NewStageRecorder creates a recorder for a single scan
func NewStageRecorder(scanID string) *StageRecorder {
	return &StageRecorder{scanID: scanID}
}

// ObserveStage copies the raster so later in-place stages don't alter it
func (r *StageRecorder) ObserveStage(stage string, img *image.Gray) {
	cp := &image.Gray{
		Pix:    append([]uint8(nil), img.Pix...),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	r.mu.Lock()
	r.stages = append(r.stages, capturedStage{stage: stage, img: cp})
	r.mu.Unlock()
}

// Stages returns the captured stage names in order
func (r *StageRecorder) Stages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.stage
	}
	return names
}

// Flush encodes and writes every captured stage. It stops at the first error.
func (r *StageRecorder) Flush(ctx context.Context, sink DiagnosticsSink) error {
	r.mu.Lock()
	stages := r.stages
	r.stages = nil
	r.mu.Unlock()

	for i, s := range stages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, s.img); err != nil {
			return fmt.Errorf("encode stage %s: %w", s.stage, err)
		}
		name := path.Join(r.scanID, fmt.Sprintf("%02d-%s.png", i, s.stage))
		if err := sink.Put(ctx, name, buf.Bytes()); err != nil {
			return fmt.Errorf("store stage %s: %w", s.stage, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"scan_id": r.scanID,
		"sink":    sink.Name(),
		"stages":  len(stages),
	}).Debug("Diagnostics written")
	return nil
}
