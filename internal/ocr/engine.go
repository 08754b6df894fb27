// Package ocr defines the text extraction contract used by the scan pipeline.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sort"
	"strconv"
)

// PageSegMode mirrors tesseract's page segmentation modes
type PageSegMode int

// PSMSingleBlock treats the image as one uniform block of text
const PSMSingleBlock PageSegMode = 6

// Printable ASCII without space, the character set code is written in
const CodeCharset = "!\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// Result is the raw engine output
type Result struct {
	Text string
	// Confidence is the mean word confidence in [0,100]
	Confidence float64
}

// Config tunes recognition for source code rather than prose
type Config struct {
	Language          string
	PageSegMode       PageSegMode
	DisableDictionary bool
	DisableFrequency  bool
	CharAllowlist     string
	TessdataPrefix    string
}

// DefaultConfig returns the settings used for code screenshots
func DefaultConfig() Config {
	return Config{
		Language:          "eng",
		PageSegMode:       PSMSingleBlock,
		DisableDictionary: true,
		DisableFrequency:  true,
		CharAllowlist:     CodeCharset,
	}
}

// Variables renders the runtime engine variables implied by the config.
// They may be set on an initialized engine.
func (c Config) Variables() map[string]string {
	vars := map[string]string{
		"tessedit_pageseg_mode": strconv.Itoa(int(c.PageSegMode)),
	}
	if c.CharAllowlist != "" {
		vars["tessedit_char_whitelist"] = c.CharAllowlist
	}
	return vars
}

// InitVariables renders the variables tesseract only reads while
// initializing, so they must reach it through a config file.
func (c Config) InitVariables() map[string]string {
	vars := map[string]string{}
	if c.DisableDictionary {
		vars["load_system_dawg"] = "0"
	}
	if c.DisableFrequency {
		vars["load_freq_dawg"] = "0"
	}
	return vars
}

// RenderConfigFile formats vars as a tesseract config file, one
// "name value" pair per line in key order. Empty vars render nothing.
func RenderConfigFile(vars map[string]string) []byte {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %s\n", k, vars[k])
	}
	return b.Bytes()
}

// Engine extracts text from a preprocessed grayscale image.
// Implementations must not retain state between calls.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img *image.Gray, cfg Config) (Result, error)
}
