// Package tesseract implements ocr.Engine on top of gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"runtime"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/codeshot-scanner/internal/errors"
	"github.com/anime-shed/codeshot-scanner/internal/logger"
	"github.com/anime-shed/codeshot-scanner/internal/ocr"
)

// Engine runs one gosseract client per call. At most maxConcurrent
// recognitions run at once.
type Engine struct {
	clientFactory func() *gosseract.Client
	sem           chan struct{}
	configs       *configFiles
}

// NewEngine creates a tesseract engine; maxConcurrent <= 0 means NumCPU
func NewEngine(maxConcurrent int) *Engine {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}
	return &Engine{
		clientFactory: gosseract.NewClient,
		sem:           make(chan struct{}, maxConcurrent),
		configs:       newConfigFiles(""),
	}
}

// Close removes the init config files written by the engine
func (e *Engine) Close() error {
	return e.configs.Close()
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize extracts text from img. The client is created, configured and
// released inside a worker goroutine so an expired ctx returns promptly
// while the native call drains in the background.
func (e *Engine) Recognize(ctx context.Context, img *image.Gray, cfg ocr.Config) (ocr.Result, error) {
	if img == nil {
		return ocr.Result{}, apperrors.NewOCRFailedError("no image to recognize", nil)
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ocr.Result{}, apperrors.NewOCRFailedError("ocr slot not acquired before deadline", ctx.Err())
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		<-e.sem
		return ocr.Result{}, apperrors.NewOCRFailedError("failed to encode image for ocr", err)
	}

	configPath, err := e.configs.Path(cfg.InitVariables())
	if err != nil {
		<-e.sem
		return ocr.Result{}, apperrors.NewOCRFailedError("failed to write tesseract config", err)
	}

	type outcome struct {
		res ocr.Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() { <-e.sem }()
		c := e.clientFactory()
		defer c.Close()
		res, err := e.recognizeWithClient(c, buf.Bytes(), configPath, cfg)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return ocr.Result{}, apperrors.NewOCRFailedError("tesseract recognition failed", out.err)
		}
		return out.res, nil
	case <-ctx.Done():
		logger.WithFields(logrus.Fields{
			"engine": e.Name(),
			"error":  ctx.Err(),
		}).Warn("OCR abandoned after deadline")
		return ocr.Result{}, apperrors.NewOCRFailedError("ocr timed out", ctx.Err())
	}
}

func (e *Engine) recognizeWithClient(c *gosseract.Client, data []byte, configPath string, cfg ocr.Config) (ocr.Result, error) {
	if cfg.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			return ocr.Result{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if cfg.Language != "" {
		if err := c.SetLanguage(cfg.Language); err != nil {
			return ocr.Result{}, fmt.Errorf("set language: %w", err)
		}
	}
	// dictionary switches are read only during api->Init
	if configPath != "" {
		if err := c.SetConfigFile(configPath); err != nil {
			return ocr.Result{}, fmt.Errorf("set config file: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		return ocr.Result{}, fmt.Errorf("set page seg mode: %w", err)
	}
	if cfg.CharAllowlist != "" {
		if err := c.SetWhitelist(cfg.CharAllowlist); err != nil {
			return ocr.Result{}, fmt.Errorf("set whitelist: %w", err)
		}
	}
	for k, v := range cfg.Variables() {
		if k == "tessedit_pageseg_mode" || k == "tessedit_char_whitelist" {
			continue
		}
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}

	// one recognition pass yields both the text layout and the confidences
	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	words := toWords(boxes)

	return ocr.Result{
		Text:       ocr.AssembleText(words),
		Confidence: ocr.MeanConfidence(words),
	}, nil
}

func toWords(boxes []gosseract.BoundingBox) []ocr.Word {
	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, ocr.Word{
			Text:       b.Word,
			Box:        b.Box,
			Confidence: b.Confidence,
			Block:      b.BlockNum,
			Para:       b.ParNum,
			Line:       b.LineNum,
		})
	}
	return words
}
