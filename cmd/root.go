package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Houeta/addrcheck/internal/config"
	"github.com/Houeta/addrcheck/internal/geocoding"
	"github.com/Houeta/addrcheck/internal/metrics"
	"github.com/Houeta/addrcheck/internal/progress"
	"github.com/Houeta/addrcheck/internal/service"
	"github.com/Houeta/addrcheck/internal/transcode"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const version = "1.0.0"

// newRootCommand builds the CLI: two positional arguments (input file path
// and the number of rows to check) and a --version flag.
func newRootCommand() *cobra.Command {
	long := "addrcheck reads a tab-delimited address file, verifies each address\n" +
		"against a geocoding search API, and writes the same rows plus an\n" +
		"adresse_valide column to a _chk copy of the file."

	rootCmd := &cobra.Command{
		Use:           "addrcheck <input-file> <lines-to-check>",
		Short:         "Batch-verifies postal addresses against a geocoding service",
		Long:          long,
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := strconv.Atoi(args[1])
			if err != nil || limit < 0 {
				return fmt.Errorf("lines-to-check must be a non-negative integer, got %q", args[1])
			}
			return run(cmd.Context(), args[0], limit)
		},
	}

	return rootCmd
}

// run wires configuration, metrics, provider and pipeline together and
// executes one verification batch.
func run(ctx context.Context, inputPath string, limit int) error {
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:   geocoding.ProviderType(cfg.ProviderType),
		APIKey: cfg.APIKey,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create geocoding provider: %w", err)
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	// Long batches can take minutes at the default pace; the monitoring
	// server makes them observable while they run.
	if cfg.HealthPort > 0 {
		go startMonitoringServer(ctx, logger, reg, cfg.HealthPort)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	outPath := outputPath(inputPath)
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	limiter := rate.NewLimiter(rate.Every(cfg.Pace), 1)
	svc := service.NewVerifyService(
		logger,
		provider,
		cfg.ProviderType, // Provider name for metrics
		appMetrics,
		limiter,
		cfg.Threshold,
		newReporter(os.Stderr, limit),
	)

	written, err := svc.Run(ctx, transcode.NewReader(in), transcode.NewWriter(out), limit)
	if err != nil {
		return fmt.Errorf("verification aborted after %d records: %w", written, err)
	}

	logger.InfoContext(ctx, "Verification finished", "records", written, "output", outPath)
	fmt.Printf("Output written to %s (%d records)\n", outPath, written)
	return nil
}

// newReporter returns a progress bar when out is a terminal and a no-op
// reporter otherwise, so redirected or headless runs stay quiet.
func newReporter(out *os.File, limit int) progress.Reporter {
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return progress.NewBar(limit)
	}
	return progress.Noop{}
}

// outputPath derives the output file path from the input path: the filename
// stem gains a _chk suffix, extension and directory are preserved.
func outputPath(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(filepath.Base(input), ext)
	return filepath.Join(filepath.Dir(input), stem+"_chk"+ext)
}
