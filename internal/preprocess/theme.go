package preprocess

// Theme is the background polarity of a screenshot
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DetectTheme classifies by mean luminance
func DetectTheme(mean, threshold float64) Theme {
	if mean < threshold {
		return ThemeDark
	}
	return ThemeLight
}
