package ocr

import (
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// Accuracy holds error rates of recognised text against a known transcript
type Accuracy struct {
	WER float64
	CER float64
}

// MeasureAccuracy compares OCR output with the text the caller expected.
// Whitespace differences are ignored for WER; CER counts every rune.
func MeasureAccuracy(expected, actual string) Accuracy {
	refWords := strings.Fields(expected)
	hypWords := strings.Fields(actual)

	var acc Accuracy
	switch {
	case len(refWords) == 0 && len(hypWords) == 0:
		acc.WER = 0
	case len(refWords) == 0:
		acc.WER = 1
	default:
		acc.WER, _ = wer.WER(refWords, hypWords)
	}

	refLen := utf8.RuneCountInString(expected)
	switch {
	case refLen == 0 && actual == "":
		acc.CER = 0
	case refLen == 0:
		acc.CER = 1
	default:
		acc.CER = float64(levenshtein.Distance(expected, actual)) / float64(refLen)
	}
	return acc
}
