package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

var severityColors = map[models.Severity]*color.Color{
	models.SeverityCritical: color.New(color.FgRed, color.Bold),
	models.SeverityHigh:     color.New(color.FgRed),
	models.SeverityMedium:   color.New(color.FgYellow),
	models.SeverityLow:      color.New(color.FgCyan),
}

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func renderReport(w io.Writer, path string, result *models.ScanResult, elapsed time.Duration) {
	fmt.Fprintf(w, "%s %s (%s theme, %s)\n", infoColor("[*]"), path, result.Theme, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "%s OCR confidence: %d/100\n", infoColor("[*]"), result.ScanFactor)

	if result.Accuracy != nil {
		fmt.Fprintf(w, "%s WER %.3f, CER %.3f\n", infoColor("[*]"), result.Accuracy.WER, result.Accuracy.CER)
	}

	if !result.IssuesFound {
		fmt.Fprintf(w, "%s No secrets detected\n", successColor("[+]"))
		return
	}

	fmt.Fprintf(w, "%s %d secret type(s) detected\n", alertColor("[!!!]"), len(result.Issues))
	for _, f := range result.Issues {
		c, ok := severityColors[f.Severity]
		if !ok {
			c = color.New(color.Reset)
		}
		fmt.Fprintf(w, "  %s %s x%d: %s\n", c.Sprintf("%-8s", f.Severity), f.Type, f.MatchCount, f.Description)
	}
}
