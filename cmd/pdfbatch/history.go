// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfbatch/internal/batch"
	"github.com/pdiddy/pdfbatch/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded batch runs",
	Long: `History reads the run ledger configured by ledger.path. Without flags it
lists recent runs; --run shows the documents of one run and --file shows every
recorded outcome for one PDF.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("ledger.path")
	if path == "" {
		return errors.New("no ledger configured: set ledger.path")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")
	file, _ := cmd.Flags().GetString("file")

	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := context.Background()
	w := cmd.OutOrStdout()
	switch {
	case runID != "":
		entries, err := l.Documents(ctx, runID)
		if err != nil {
			return err
		}
		printEntries(w, entries)
	case file != "":
		entries, err := l.History(ctx, file)
		if err != nil {
			return err
		}
		printEntries(w, entries)
	default:
		runs, err := l.Recent(ctx, limit)
		if err != nil {
			return err
		}
		printRuns(w, runs)
	}
	return nil
}

func printRuns(w io.Writer, runs []ledger.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-20s  %-6s  %9s  %6s  %7s  %s\n",
		"Run", "Started", "Method", "Converted", "Failed", "Skipped", "Input")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %-6s  %9d  %6d  %7d  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Method, r.Converted, r.Failed, r.Skipped, r.Input)
	}
}

func printEntries(w io.Writer, entries []batch.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No documents recorded.")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%-9s  %8.2fs  %s", e.Status, e.Duration.Seconds(), e.Path)
		if e.Error != "" {
			line += "  (" + e.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to list")
	historyCmd.Flags().String("run", "", "show the documents of this run")
	historyCmd.Flags().String("file", "", "show every recorded outcome for this PDF path")

	rootCmd.AddCommand(historyCmd)
}
