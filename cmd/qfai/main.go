// Package main provides the qfai binary entry point.
// qfai validates the traceability between spec packs, scenarios, contracts
// and the tests that exercise them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/qfai/config"
	"github.com/c360studio/qfai/metric"
	"github.com/c360studio/qfai/publish"
	"github.com/c360studio/qfai/validation"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "qfai"
)

// errValidationFailed signals a run that crossed its fail-on threshold.
var errValidationFailed = errors.New("validation failed")

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(3)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		if errors.Is(err, errValidationFailed) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

type validateOptions struct {
	root        string
	configPath  string
	logLevel    string
	failOn      string
	format      string
	metricsFile string
	natsURL     string
	natsSubject string
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Traceability validator for spec-driven projects",
		Long: `qfai checks that SPEC documents, their business rules, the scenarios
realizing them and the UI/API/DB contracts those scenarios touch all
reference each other consistently.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(validateCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})
	return cmd
}

func validateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the project and report issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", ".", "Project root")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", config.FileName, "Config file path, relative to the root")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "Fail threshold (error, warning, never); overrides the config")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format (text, json)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "Publish the result to this NATS server")
	cmd.Flags().StringVar(&opts.natsSubject, "nats-subject", publish.DefaultSubject, "NATS subject for the result")
	return cmd
}

func runValidate(ctx context.Context, stdout, stderr io.Writer, opts validateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(stderr, opts.logLevel)

	switch opts.format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}
	switch opts.failOn {
	case "", config.FailOnError, config.FailOnWarning, config.FailOnNever:
	default:
		return fmt.Errorf("unknown fail-on %q (want error, warning or never)", opts.failOn)
	}

	absRoot, err := filepath.Abs(opts.root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absRoot)
	}
	logger = logger.With(slog.String("root", absRoot))

	start := time.Now()
	result, err := validation.Run(ctx, validation.Options{
		FS:          os.DirFS(absRoot),
		ConfigPath:  filepath.ToSlash(opts.configPath),
		Logger:      logger,
		ToolVersion: Version,
	})
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	elapsed := time.Since(start)

	failOn := opts.failOn
	if failOn == "" {
		failOn = result.Config.Validation.FailOn
	}
	failed := result.Failed(failOn)

	if err := writeResult(stdout, opts.format, result); err != nil {
		return err
	}

	if opts.metricsFile != "" {
		metrics := metric.NewMetricsRegistry()
		metrics.Observe(result, elapsed, failed)
		if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
		logger.Debug("Metrics written", slog.String("path", opts.metricsFile))
	}

	if opts.natsURL != "" {
		nc, err := publish.Connect(opts.natsURL, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		event := publish.NewResultEvent(absRoot, result, failed)
		if err := publish.PublishResult(ctx, nc, opts.natsSubject, event); err != nil {
			return err
		}
		logger.Debug("Result published", slog.String("subject", opts.natsSubject))
	}

	if failed {
		return errValidationFailed
	}
	return nil
}

func writeResult(w io.Writer, format string, result *validation.Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		return nil
	}

	for _, i := range result.Issues {
		if _, err := fmt.Fprintln(w, i.String()); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	sc := result.Traceability.SC
	_, err := fmt.Fprintf(w, "\n%d error(s), %d warning(s), %d info; SC coverage %d/%d\n",
		result.Counts.Error, result.Counts.Warning, result.Counts.Info, sc.Covered, sc.Total)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
