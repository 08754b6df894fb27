package preprocess

// SharpenProfile parameterises the unsharp mask
type SharpenProfile struct {
	Sigma     float64
	Amount    float64
	Threshold float64
}

// Options provides the preprocessing tunables
type Options struct {
	// Input limits
	MaxBytes        int64
	MaxSourcePixels int64
	MaxDimension    int

	// Theme detection and contrast normalisation
	ThemeThreshold float64
	StretchLow     float64
	StretchHigh    float64
	DarkContrast   float64
	LightContrast  float64

	DarkSharpen  SharpenProfile
	LightSharpen SharpenProfile
}

// DefaultOptions returns the defaults tuned for code screenshots
func DefaultOptions() Options {
	return Options{
		MaxBytes:        5 * 1024 * 1024,
		MaxSourcePixels: 40_000_000,
		MaxDimension:    2048,
		ThemeThreshold:  128,
		StretchLow:      5,
		StretchHigh:     95,
		DarkContrast:    1.1,
		LightContrast:   1.2,
		DarkSharpen:     SharpenProfile{Sigma: 0.8, Amount: 0.4, Threshold: 2},
		LightSharpen:    SharpenProfile{Sigma: 1.0, Amount: 0.7, Threshold: 2},
	}
}

// WithMaxBytes sets the upload byte limit
func (o Options) WithMaxBytes(n int64) Options {
	o.MaxBytes = n
	return o
}

// WithMaxSourcePixels bounds width*height of the undecoded source
func (o Options) WithMaxSourcePixels(n int64) Options {
	o.MaxSourcePixels = n
	return o
}

// WithMaxDimension sets the longest edge after downscaling
func (o Options) WithMaxDimension(n int) Options {
	o.MaxDimension = n
	return o
}

// WithThemeThreshold sets the mean luminance below which an image is dark
func (o Options) WithThemeThreshold(t float64) Options {
	o.ThemeThreshold = t
	return o
}

// WithStretch sets the percentile clip bounds, in percent
func (o Options) WithStretch(low, high float64) Options {
	o.StretchLow = low
	o.StretchHigh = high
	return o
}
