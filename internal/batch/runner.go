// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch runs every PDF under an input path through the parse
// driver, isolating failures per document.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdfbatch/internal/cache"
	"github.com/pdiddy/pdfbatch/internal/collect"
	"github.com/pdiddy/pdfbatch/internal/layout"
	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/storage"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

// Parser parses one prepared document.
type Parser interface {
	Parse(ctx context.Context, job types.DocumentJob, dirs layout.Dirs, pdf []byte, models model.Records) error
}

// Options configure a Runner.
type Options struct {
	Method types.Method
	// Workers is the number of documents processed at once. Values below 1
	// mean 1.
	Workers int
	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer
}

// Runner drives a batch.
type Runner struct {
	parser Parser
	input  storage.ReaderWriter
	output storage.ReaderWriter
	logger *slog.Logger
	out    io.Writer
	opts   Options
	now    func() time.Time
}

// NewRunner returns a runner that reads PDFs from local disk, writes
// artifacts to output, and prints the summary to out.
func NewRunner(parser Parser, output storage.ReaderWriter, logger *slog.Logger, out io.Writer, opts Options) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		parser: parser,
		input:  storage.NewDisk(),
		output: output,
		logger: logger,
		out:    out,
		opts:   opts,
		now:    time.Now,
	}
}

// Run processes every PDF found under input. Per-document failures are
// recorded in the summary. A configuration error stops the batch: the
// documents not yet started are marked skipped and the error is returned.
func (r *Runner) Run(ctx context.Context, input, outRoot string) (Summary, error) {
	method, err := types.ParseMethod(string(r.opts.Method))
	if err != nil {
		return Summary{}, err
	}
	targets, err := collect.Collect(input)
	if err != nil {
		return Summary{}, err
	}

	start := r.now()
	sum := Summary{
		RunID:     uuid.NewString(),
		Input:     input,
		OutRoot:   outRoot,
		Method:    method,
		StartedAt: start,
		Entries:   make([]Entry, len(targets)),
	}
	for i, t := range targets {
		sum.Entries[i] = Entry{Path: t.Path, RelDir: t.RelDir, Status: types.DocSkipped}
	}
	r.logger.Info("batch started", "run_id", sum.RunID, "documents", len(targets), "method", string(method), "workers", r.opts.Workers)

	bar := r.progress(len(targets))
	clashes := r.claimArtifacts(targets, method, outRoot, sum.Entries)
	if bar != nil {
		_ = bar.Add(clashes)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		if sum.Entries[i].Status == types.DocFailed {
			continue
		}
		g.Go(func() error {
			// The batch may have been aborted while this call waited for a
			// free worker.
			if gctx.Err() != nil {
				return nil
			}
			entry, err := r.process(gctx, t, method, outRoot)
			if err != nil && gctx.Err() != nil && errors.Is(err, context.Canceled) {
				entry.Status, entry.Error = types.DocSkipped, ""
			}
			sum.Entries[i] = entry
			if bar != nil {
				_ = bar.Add(1)
			}
			if errors.Is(err, types.ErrConfig) {
				return err
			}
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}
	if bar != nil {
		_ = bar.Finish()
	}
	sum.Duration = r.now().Sub(start)

	if runErr != nil {
		r.logger.Error("batch aborted", "run_id", sum.RunID, "error", runErr)
	}
	if r.out != nil {
		PrintSummary(r.out, sum)
	}
	return sum, runErr
}

// claimArtifacts fails every target whose artifact directory was already
// claimed by an earlier target, such as a.pdf and a.PDF in one directory.
// It returns the number of targets failed.
func (r *Runner) claimArtifacts(targets []collect.Target, method types.Method, outRoot string, entries []Entry) int {
	owners := make(map[string]string, len(targets))
	clashes := 0
	for i, t := range targets {
		dir := layout.ForJob(types.NewDocumentJob(t.Path, t.RelDir, outRoot, method)).Artifact
		owner, taken := owners[dir]
		if !taken {
			owners[dir] = t.Path
			continue
		}
		clashes++
		err := fmt.Errorf("artifact directory %s already belongs to %s", dir, owner)
		entries[i] = Entry{Path: t.Path, RelDir: t.RelDir, Status: types.DocFailed, Error: err.Error(), Artifact: dir}
		r.logger.Error("document failed", "path", t.Path, "rel_dir", t.RelDir, "method", string(method), "error", err)
	}
	return clashes
}

// process handles one document. The returned error is the document's
// failure, if any; it is also recorded in the entry.
func (r *Runner) process(ctx context.Context, t collect.Target, method types.Method, outRoot string) (entry Entry, err error) {
	job := types.NewDocumentJob(t.Path, t.RelDir, outRoot, method)
	log := r.logger.With("path", t.Path, "rel_dir", t.RelDir, "method", string(method))
	start := r.now()
	entry = Entry{Path: t.Path, RelDir: t.RelDir, Status: types.DocFailed}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		entry.Duration = r.now().Sub(start)
		if err != nil {
			entry.Status, entry.Error = types.DocFailed, err.Error()
			log.Error("document failed", "error", err)
			return
		}
		entry.Status = types.DocConverted
		log.Info("document converted", "duration", entry.Duration, "cache", string(entry.Cache))
	}()

	pdf, err := r.input.Read(ctx, t.Path, storage.ModeBinary)
	if err != nil {
		return entry, fmt.Errorf("reading input: %w", err)
	}
	dirs, err := layout.Prepare(ctx, r.output, job)
	if err != nil {
		return entry, err
	}
	entry.Artifact = dirs.Artifact

	res := cache.Lookup(ctx, r.output, dirs.Artifact, log)
	entry.Cache = res.State
	if err := r.parser.Parse(ctx, job, dirs, pdf, res.Records); err != nil {
		return entry, err
	}
	return entry, nil
}

func (r *Runner) progress(total int) *progressbar.ProgressBar {
	if r.opts.Progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.opts.Progress),
		progressbar.OptionSetDescription(color.BlueString("parsing")),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
