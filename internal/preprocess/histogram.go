package preprocess

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// levels holds 0..255 in order, the sorted sample set for histogram statistics
var levels = func() []float64 {
	l := make([]float64, 256)
	for i := range l {
		l[i] = float64(i)
	}
	return l
}()

// histogram counts pixels per gray level
func histogram(img *image.Gray) []float64 {
	hist := make([]float64, 256)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

func meanLuminance(hist []float64) float64 {
	return stat.Mean(levels, hist)
}

// percentile returns the gray level at p percent of the weighted histogram
func percentile(hist []float64, p float64) float64 {
	return stat.Quantile(p/100, stat.Empirical, levels, hist)
}
