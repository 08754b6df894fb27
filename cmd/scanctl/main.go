package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anime-shed/codeshot-scanner/internal/config"
	"github.com/anime-shed/codeshot-scanner/internal/container"
	"github.com/anime-shed/codeshot-scanner/internal/logger"
	"github.com/anime-shed/codeshot-scanner/internal/service"
)

var (
	version = "1.0.0"
	appName = "scanctl"

	colorRed = color.New(color.FgRed, color.Bold)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SCANCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           appName,
		Short:         "Scan code screenshots for leaked secrets",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newScanCmd(v))
	return root
}

func newScanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "OCR a screenshot and report secrets found in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, v, args[0])
		},
	}

	flags := cmd.Flags()
	flags.String("mode", config.DetectionModeHeuristic, "detection rule set (heuristic or strict)")
	flags.String("lang", "", "tesseract language, overrides OCR_LANGUAGE")
	flags.Duration("timeout", 0, "OCR timeout, overrides OCR_TIMEOUT")
	flags.String("expected", "", "expected text for OCR accuracy measurement")
	flags.Bool("json", false, "print the report as JSON")
	for _, name := range []string{"mode", "lang", "timeout", "expected", "json"} {
		v.BindPFlag(name, flags.Lookup(name))
	}
	return cmd
}

func runScan(cmd *cobra.Command, v *viper.Viper, path string) error {
	logger.SetLevel(v.GetString("log-level"))

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.DetectionMode = strings.ToLower(v.GetString("mode"))

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	raw, err := c.Validator().ValidateUpload("", data)
	if err != nil {
		return err
	}

	timeout := v.GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout+timeout)
	defer cancel()

	start := time.Now()
	result, err := c.ScanService().Scan(ctx, raw, service.ScanOptions{
		Source:       service.SourceCLI,
		ExpectedText: v.GetString("expected"),
		Language:     v.GetString("lang"),
		OCRTimeout:   timeout,
	})
	if err != nil {
		return err
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderReport(cmd.OutOrStdout(), path, result, time.Since(start))
	return nil
}
