package preprocess

import (
	"image"
	"math"

	"github.com/disintegration/gift"
)

// lut maps every gray level through a fixed table
type lut [256]uint8

func (t *lut) apply(img *image.Gray) {
	for i, v := range img.Pix {
		img.Pix[i] = t[v]
	}
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// normalizeLUT stretches [low,high] to the full range and then applies a
// linear contrast gain around mid-gray. The stretch is skipped when the
// range is degenerate.
func normalizeLUT(low, high, contrast float64) *lut {
	var t lut
	stretch := high > low
	for i := range t {
		v := float64(i)
		if stretch {
			v = (v - low) * 255 / (high - low)
			v = math.Max(0, math.Min(255, v))
		}
		v = (v-128)*contrast + 128
		t[i] = clampByte(v)
	}
	return &t
}

func render(g *gift.GIFT, src *image.Gray) *image.Gray {
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

func invert(img *image.Gray) *image.Gray {
	return render(gift.New(gift.Invert()), img)
}

// sharpen applies an unsharp mask. Threshold is in gray levels and
// compares against the unscaled difference from the blurred image.
func sharpen(img *image.Gray, p SharpenProfile) *image.Gray {
	if p.Amount == 0 {
		return img
	}
	threshold := math.Abs(p.Threshold*p.Amount) / 255
	return render(gift.New(gift.UnsharpMask(float32(p.Sigma), float32(p.Amount), float32(threshold))), img)
}
