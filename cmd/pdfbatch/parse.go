// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfbatch/internal/analyze"
	"github.com/pdiddy/pdfbatch/internal/batch"
	"github.com/pdiddy/pdfbatch/internal/config"
	"github.com/pdiddy/pdfbatch/internal/driver"
	"github.com/pdiddy/pdfbatch/internal/ledger"
	"github.com/pdiddy/pdfbatch/internal/secrets"
	"github.com/pdiddy/pdfbatch/internal/storage"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse every PDF under a file or directory",
	Long: `Parse collects the PDFs under --file_path (recursively for a directory)
and writes each document's artifacts to --out_root/<rel_dir>/<doc>/<method>/.

The pipeline method comes from the parse.method setting (auto, txt, or ocr).
A document that fails is reported and the batch continues; an unknown method
or a missing model list with parse.inside_model disabled stops the run.`,
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file_path")
	outRoot, _ := cmd.Flags().GetString("out_root")
	reportPath, _ := cmd.Flags().GetString("report")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	secrets.Apply(&cfg, loadedSecrets)

	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	var analyzer analyze.Analyzer
	if cfg.Parse.InsideModel {
		analyzer, err = analyze.New(cfg.Engine)
		if err != nil {
			return err
		}
	}
	d, err := driver.New(cfg.Parse, analyzer, store, logger)
	if err != nil {
		return err
	}

	opts := batch.Options{Method: cfg.Parse.Method, Workers: cfg.Batch.Workers}
	if cfg.Batch.Progress {
		opts.Progress = os.Stderr
	}
	sum, runErr := batch.NewRunner(d, store, logger, cmd.OutOrStdout(), opts).Run(ctx, filePath, outRoot)

	if sum.RunID != "" {
		if reportPath != "" {
			if err := batch.WriteReport(ctx, storage.NewDisk(), reportPath, sum); err != nil {
				logger.Error("writing report", "path", reportPath, "error", err)
			}
		}
		if cfg.Ledger.Path != "" {
			recordRun(ctx, cfg.Ledger, sum, logger)
		}
	}

	if runErr != nil {
		return runErr
	}
	if failOnError && sum.HasFailures() {
		return fmt.Errorf("%d of %d document(s) failed", sum.Failed(), sum.Total())
	}
	return nil
}

func recordRun(ctx context.Context, cfg types.LedgerConfig, sum batch.Summary, logger *slog.Logger) {
	l, err := ledger.Open(cfg.Path)
	if err != nil {
		logger.Error("opening ledger", "path", cfg.Path, "error", err)
		return
	}
	defer l.Close()
	if err := l.Record(ctx, sum); err != nil {
		logger.Error("recording run", "run_id", sum.RunID, "error", err)
	}
}

func init() {
	parseCmd.Flags().String("file_path", "", "PDF file or directory of PDFs to parse")
	parseCmd.Flags().String("out_root", "", "root directory for parse artifacts")
	parseCmd.Flags().String("report", "", "write a YAML run report to this file")
	parseCmd.Flags().Int("workers", 1, "documents to parse at once")
	parseCmd.Flags().Bool("fail-on-error", false, "exit non-zero when any document fails")
	_ = parseCmd.MarkFlagRequired("file_path")
	_ = parseCmd.MarkFlagRequired("out_root")
	_ = viper.BindPFlag("batch.workers", parseCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(parseCmd)
}
