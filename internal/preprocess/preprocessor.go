// Package preprocess turns an uploaded screenshot into a normalized
// grayscale raster suited to OCR: dark text on a light background with
// stretched contrast and a light sharpening pass.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	apperrors "github.com/anime-shed/codeshot-scanner/internal/errors"
	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

// Stage names reported to a StageObserver
const (
	StageGrayscale  = "grayscale"
	StageResized    = "resized"
	StageInverted   = "inverted"
	StageNormalized = "normalized"
	StageSharpened  = "sharpened"
)

// StageObserver receives intermediate rasters. Implementations must not
// modify img and must copy it if they keep it past the call.
type StageObserver interface {
	ObserveStage(stage string, img *image.Gray)
}

// StageObserverFunc adapts a function to StageObserver
type StageObserverFunc func(stage string, img *image.Gray)

func (f StageObserverFunc) ObserveStage(stage string, img *image.Gray) { f(stage, img) }

// Result is the OCR-ready raster and what was learned producing it
type Result struct {
	Image         *image.Gray
	Theme         Theme
	MeanLuminance float64
	SourceWidth   int
	SourceHeight  int
}

// Preprocessor is stateless apart from its options and is safe for concurrent use
type Preprocessor struct {
	opts     Options
	observer StageObserver
}

// New creates a preprocessor. observer may be nil.
func New(opts Options, observer StageObserver) *Preprocessor {
	return &Preprocessor{opts: opts, observer: observer}
}

// Options returns the active tunables
func (p *Preprocessor) Options() Options {
	return p.opts
}

// Process runs the full pipeline with the preprocessor's own observer
func (p *Preprocessor) Process(raw models.RawImage) (*Result, error) {
	return p.ProcessWithObserver(raw, p.observer)
}

// ProcessWithObserver runs the pipeline reporting stages to obs instead
func (p *Preprocessor) ProcessWithObserver(raw models.RawImage, obs StageObserver) (*Result, error) {
	if raw.MIMEType != models.MIMETypeJPEG && raw.MIMEType != models.MIMETypePNG {
		return nil, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("unsupported image type %q, only JPEG and PNG are accepted", raw.MIMEType), nil)
	}
	if p.opts.MaxBytes > 0 && raw.Size() > p.opts.MaxBytes {
		return nil, apperrors.NewImageTooLargeError(
			fmt.Sprintf("image is %d bytes, limit is %d", raw.Size(), p.opts.MaxBytes), nil)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, apperrors.NewImageDecodeError("failed to read image header", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperrors.NewImageDecodeError("image has no pixels", nil)
	}
	if p.opts.MaxSourcePixels > 0 && int64(cfg.Width)*int64(cfg.Height) > p.opts.MaxSourcePixels {
		return nil, apperrors.NewImageTooLargeError(
			fmt.Sprintf("image is %dx%d pixels, limit is %d", cfg.Width, cfg.Height, p.opts.MaxSourcePixels), nil)
	}

	src, _, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, apperrors.NewImageDecodeError("failed to decode image", err)
	}

	return p.Transform(src, obs), nil
}

// Transform runs the raster stages on an already decoded image
func (p *Preprocessor) Transform(src image.Image, obs StageObserver) *Result {
	gray := toGray(src)
	notify(obs, StageGrayscale, gray)

	if resized, ok := fitInside(gray, p.opts.MaxDimension); ok {
		gray = resized
		notify(obs, StageResized, gray)
	}

	mean := meanLuminance(histogram(gray))
	theme := DetectTheme(mean, p.opts.ThemeThreshold)

	contrast, profile := p.opts.LightContrast, p.opts.LightSharpen
	if theme == ThemeDark {
		gray = invert(gray)
		notify(obs, StageInverted, gray)
		contrast, profile = p.opts.DarkContrast, p.opts.DarkSharpen
	}

	hist := histogram(gray)
	low := percentile(hist, p.opts.StretchLow)
	high := percentile(hist, p.opts.StretchHigh)
	normalizeLUT(low, high, contrast).apply(gray)
	notify(obs, StageNormalized, gray)

	gray = sharpen(gray, profile)
	notify(obs, StageSharpened, gray)

	return &Result{
		Image:         gray,
		Theme:         theme,
		MeanLuminance: mean,
		SourceWidth:   src.Bounds().Dx(),
		SourceHeight:  src.Bounds().Dy(),
	}
}

func notify(obs StageObserver, stage string, img *image.Gray) {
	if obs != nil {
		obs.ObserveStage(stage, img)
	}
}

// toGray flattens src onto white and converts it to 8-bit luminance
func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Over)
	return gray
}

// fitInside downscales so the longer edge is at most maxDim. It never upscales.
func fitInside(img *image.Gray, maxDim int) (*image.Gray, bool) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if maxDim <= 0 || longer <= maxDim {
		return img, false
	}

	scale := float64(maxDim) / float64(longer)
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	if nw > maxDim {
		nw = maxDim
	}
	if nh > maxDim {
		nh = maxDim
	}

	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, true
}
