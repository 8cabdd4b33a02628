// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/H0llyW00dzZ/probekit/internal/config"
	"github.com/H0llyW00dzZ/probekit/internal/report"
	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *App) batchCommand() *cobra.Command {
	var (
		file      string
		workers   int
		batchSize int
		timeout   time.Duration
		asJSON    bool
		xlsxPath  string
	)
	cmd := &cobra.Command{
		Use:   "batch -f requests.yaml",
		Short: "Run many checks concurrently from a requests file",
		Example: `  probekit batch -f requests.yaml
  probekit batch -f requests.yaml --workers 20 --batch-size 100 --timeout 5m
  probekit batch -f requests.yaml --xlsx report.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := config.LoadRequests(file)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("workers") {
				workers = a.cfg.Workers
			}
			if !flags.Changed("batch-size") {
				batchSize = a.cfg.BatchSize
			}
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", workers)
			}
			if batchSize < 0 {
				return fmt.Errorf("--batch-size must not be negative, got %d", batchSize)
			}

			runner := a.runner
			if flags.Changed("timeout") {
				runner = check.NewRunner(runner.Registry(),
					check.WithLogger(a.logger.Named("runner")),
					check.WithMaxWorkers(workers),
					check.WithBatchTimeout(timeout),
				)
			}

			start := time.Now()
			outcomes := runner.RunBatch(cmd.Context(), reqs, batchSize, workers)
			summary := report.Summarize(outcomes)
			a.logger.Info("batch_finished",
				zap.Int("total", summary.Total),
				zap.Int("success", summary.Success),
				zap.Int("warning", summary.Warning),
				zap.Int("error", summary.Error),
				zap.Duration("elapsed", time.Since(start)),
			)
			a.exitCode = summary.ExitCode()

			if xlsxPath != "" {
				if err := writeXLSX(xlsxPath, outcomes); err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "report written to %s\n", xlsxPath)
			}
			if a.jsonOutput(asJSON) {
				return report.WriteJSON(a.stdout, outcomes)
			}
			return a.printer().Table(outcomes)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "YAML requests file")
	f.IntVarP(&workers, "workers", "w", 0, "maximum checks in flight (default from config)")
	f.IntVar(&batchSize, "batch-size", 0, "requests per wave, 0 runs a single wave")
	f.DurationVar(&timeout, "timeout", 0, "advisory deadline for the whole batch, 0 disables it")
	f.BoolVar(&asJSON, "json", false, "print the results as JSON")
	f.StringVar(&xlsxPath, "xlsx", "", "write an XLSX report to this path; the table still goes to stdout")
	_ = cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("json", "xlsx")
	return cmd
}

func writeXLSX(path string, outcomes []check.Outcome) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.WriteXLSX(f, outcomes)
}
