package ocr

import (
	"image"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Word is one recognized word with its position in the page layout
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
	Block      int
	Para       int
	Line       int
}

type lineKey struct{ block, para, line int }

// AssembleText rebuilds page text from recognized words. Words sharing a
// line are joined by single spaces; each line is indented by the number of
// character widths its first word sits right of the leftmost line start.
func AssembleText(words []Word) string {
	var order []lineKey
	lines := map[lineKey][]Word{}
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		k := lineKey{w.Block, w.Para, w.Line}
		if _, ok := lines[k]; !ok {
			order = append(order, k)
		}
		lines[k] = append(lines[k], w)
	}
	if len(order) == 0 {
		return ""
	}

	left := math.MaxInt
	for _, k := range order {
		if x := lines[k][0].Box.Min.X; x < left {
			left = x
		}
	}
	charWidth := medianCharWidth(words)

	out := make([]string, 0, len(order))
	for _, k := range order {
		ws := lines[k]
		texts := make([]string, len(ws))
		for i, w := range ws {
			texts[i] = strings.TrimSpace(w.Text)
		}
		indent := 0
		if charWidth > 0 {
			indent = int(math.Round(float64(ws[0].Box.Min.X-left) / charWidth))
		}
		out = append(out, strings.Repeat(" ", indent)+strings.Join(texts, " "))
	}
	return strings.Join(out, "\n")
}

// MeanConfidence averages word confidences, clamped to [0,100].
// No words yields 0.
func MeanConfidence(words []Word) float64 {
	var sum float64
	n := 0
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		sum += w.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Max(0, math.Min(100, sum/float64(n)))
}

func medianCharWidth(words []Word) float64 {
	widths := make([]float64, 0, len(words))
	for _, w := range words {
		n := utf8.RuneCountInString(strings.TrimSpace(w.Text))
		if n == 0 || w.Box.Dx() <= 0 {
			continue
		}
		widths = append(widths, float64(w.Box.Dx())/float64(n))
	}
	if len(widths) == 0 {
		return 0
	}
	sort.Float64s(widths)
	return widths[len(widths)/2]
}
