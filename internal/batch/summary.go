// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/pdiddy/pdfbatch/internal/cache"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

// Entry is the outcome of one document. Entries keep discovery order.
type Entry struct {
	Path     string          `yaml:"path"`
	RelDir   string          `yaml:"rel_dir,omitempty"`
	Status   types.DocStatus `yaml:"status"`
	Duration time.Duration   `yaml:"duration"`
	Error    string          `yaml:"error,omitempty"`
	Cache    cache.State     `yaml:"cache,omitempty"`
	Artifact string          `yaml:"artifact,omitempty"`
}

// Summary is the outcome of a batch run.
type Summary struct {
	RunID     string        `yaml:"run_id"`
	Input     string        `yaml:"input"`
	OutRoot   string        `yaml:"out_root"`
	Method    types.Method  `yaml:"method"`
	StartedAt time.Time     `yaml:"started_at"`
	Duration  time.Duration `yaml:"duration"`
	Entries   []Entry       `yaml:"entries"`
}

func (s Summary) count(status types.DocStatus) int {
	n := 0
	for _, e := range s.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Converted returns the number of documents parsed successfully.
func (s Summary) Converted() int { return s.count(types.DocConverted) }

// Failed returns the number of documents that failed.
func (s Summary) Failed() int { return s.count(types.DocFailed) }

// Skipped returns the number of documents never attempted.
func (s Summary) Skipped() int { return s.count(types.DocSkipped) }

// Total returns the number of documents found.
func (s Summary) Total() int { return len(s.Entries) }

// HasFailures reports whether any document failed.
func (s Summary) HasFailures() bool { return s.Failed() > 0 }

var (
	failedWord  = color.New(color.FgRed).SprintFunc()
	skippedWord = color.New(color.FgYellow).SprintFunc()
)

// PrintSummary writes one line per document followed by the totals.
func PrintSummary(w io.Writer, s Summary) {
	for _, e := range s.Entries {
		switch e.Status {
		case types.DocConverted:
			fmt.Fprintf(w, "File: %s, Duration: %.2f s\n", e.Path, e.Duration.Seconds())
		case types.DocFailed:
			fmt.Fprintf(w, "File: %s, Status: %s (%s)\n", e.Path, failedWord("failed"), e.Error)
		case types.DocSkipped:
			fmt.Fprintf(w, "File: %s, Status: %s\n", e.Path, skippedWord("skipped"))
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed, %d skipped (total: %d)\n",
		s.Converted(), s.Failed(), s.Skipped(), s.Total())
}
