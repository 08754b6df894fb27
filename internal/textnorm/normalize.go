// Package textnorm canonicalises raw OCR output before pattern matching.
package textnorm

import "strings"

const indentWidth = 4

// Normalize collapses OCR whitespace noise while keeping line structure.
// Line endings become LF, blank lines are dropped, leading indentation is
// re-expressed as one tab per level of four columns and interior whitespace
// runs become a single space. The result is trimmed. Normalize is total and
// idempotent.
func Normalize(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		body := strings.TrimSpace(line)
		if body == "" {
			continue
		}
		level := indentLevel(line)
		out = append(out, strings.Repeat("\t", level)+strings.Join(strings.Fields(body), " "))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// indentLevel measures leading whitespace in columns and rounds up to whole levels
func indentLevel(line string) int {
	cols := 0
	for _, r := range line {
		switch r {
		case '\t':
			cols += indentWidth
		case ' ', '\v', '\f', '\u00a0':
			cols++
		default:
			return (cols + indentWidth - 1) / indentWidth
		}
	}
	return (cols + indentWidth - 1) / indentWidth
}
