// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package driver runs one document through its pipeline and writes the
// selected artifacts.
package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/pdiddy/pdfbatch/internal/analyze"
	"github.com/pdiddy/pdfbatch/internal/cache"
	"github.com/pdiddy/pdfbatch/internal/layout"
	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/pipeline"
	"github.com/pdiddy/pdfbatch/internal/preview"
	"github.com/pdiddy/pdfbatch/internal/render"
	"github.com/pdiddy/pdfbatch/internal/storage"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

// Artifact file names inside a document's artifact directory.
const (
	MiddleFile      = "middle.json"
	OriginFile      = "origin.pdf"
	ContentListFile = "content_list.json"
)

// Driver parses documents with a fixed configuration.
type Driver struct {
	cfg      types.ParseConfig
	drop     pipeline.DropMode
	makeMode pipeline.MakeMode
	analyzer analyze.Analyzer
	store    storage.ReaderWriter
	logger   *slog.Logger
}

// New validates cfg and returns a driver. analyzer may be nil when
// inside_model is off.
func New(cfg types.ParseConfig, analyzer analyze.Analyzer, store storage.ReaderWriter, logger *slog.Logger) (*Driver, error) {
	drop, err := pipeline.ParseDropMode(cfg.DropMode)
	if err != nil {
		return nil, fmt.Errorf("%w: parse.drop_mode: %w", types.ErrConfig, err)
	}
	mk, err := pipeline.ParseMakeMode(cfg.MakeMode)
	if err != nil {
		return nil, fmt.Errorf("%w: parse.make_mode: %w", types.ErrConfig, err)
	}
	if cfg.InsideModel && analyzer == nil {
		return nil, fmt.Errorf("%w: parse.inside_model is set but no analyzer is configured", types.ErrConfig)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Driver{cfg: cfg, drop: drop, makeMode: mk, analyzer: analyzer, store: store, logger: logger}, nil
}

// Parse runs job's pipeline over pdf. models are the cached records; when
// empty the analyzer produces them, or types.ErrNeedModelList is returned
// if inside_model is off.
func (d *Driver) Parse(ctx context.Context, job types.DocumentJob, dirs layout.Dirs, pdf []byte, models model.Records) error {
	log := d.logger.With("path", job.InputPath, "method", string(job.Method), "rel_dir", job.RelDir)

	p, err := pipeline.New(job.Method, pdf, models, pipeline.Deps{
		Analyzer: d.analyzer,
		Images:   storage.Sub(d.store, dirs.Images),
		Logger:   log,
	})
	if err != nil {
		return err
	}
	if err := p.Classify(ctx); err != nil {
		return err
	}

	if len(models) == 0 {
		if !d.cfg.InsideModel {
			return fmt.Errorf("%s: %w", job.DocumentName, types.ErrNeedModelList)
		}
		log.Debug("running model inference")
		if err := p.Analyze(ctx); err != nil {
			return err
		}
		if err := p.ModelList().Validate(); err != nil {
			return fmt.Errorf("analyzer output: %w", err)
		}
	} else {
		log.Debug("using cached model records", "pages", len(models))
	}

	if err := p.Parse(ctx); err != nil {
		return err
	}
	mid := p.MiddleData()

	if d.cfg.DrawLayoutBBox {
		d.writeOverlay(ctx, log, dirs, render.LayoutFile, render.Layout, mid)
	}
	if d.cfg.DrawSpanBBox {
		d.writeOverlay(ctx, log, dirs, render.SpansFile, render.Spans, mid)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	md, err := p.MakeMarkdown(dirs.ImagesRel, d.drop, d.markdownMode())
	if err != nil {
		return fmt.Errorf("making markdown: %w", err)
	}

	if d.cfg.DumpMarkdown {
		if err := d.write(ctx, []byte(md), filepath.Join(dirs.Artifact, job.DocumentName+".md"), storage.ModeText); err != nil {
			return err
		}
	}
	if d.cfg.DumpMiddleJSON {
		if err := d.writeJSON(ctx, mid, filepath.Join(dirs.Artifact, MiddleFile)); err != nil {
			return err
		}
	}
	if d.cfg.DumpModelJSON {
		if err := cache.Store(ctx, d.store, dirs.Artifact, p.ModelList()); err != nil {
			return err
		}
	}
	if d.cfg.DumpOrigPDF {
		if err := d.write(ctx, pdf, filepath.Join(dirs.Artifact, OriginFile), storage.ModeBinary); err != nil {
			return err
		}
	}
	if d.cfg.DumpContentList {
		list, err := p.MakeContentList(dirs.ImagesRel, d.drop)
		if err != nil {
			return fmt.Errorf("making content list: %w", err)
		}
		if err := d.writeJSON(ctx, list, filepath.Join(dirs.Artifact, ContentListFile)); err != nil {
			return err
		}
	}
	if d.cfg.DumpHTML {
		page, err := preview.HTML(md, job.DocumentName)
		if err != nil {
			return err
		}
		if err := d.write(ctx, page, filepath.Join(dirs.Artifact, job.DocumentName+".html"), storage.ModeText); err != nil {
			return err
		}
	}
	log.Debug("document parsed", "pages", len(mid.PDFInfo), "parse_type", mid.ParseType)
	return nil
}

// markdownMode maps the configured make mode onto a Markdown flavour. The
// standard format only shapes the content list.
func (d *Driver) markdownMode() pipeline.MakeMode {
	if d.makeMode == pipeline.MakeStandard {
		return pipeline.MakeMMMarkdown
	}
	return d.makeMode
}

// writeOverlay draws and stores one overlay image. Overlays are diagnostic,
// so a failure is logged and the document carries on.
func (d *Driver) writeOverlay(ctx context.Context, log *slog.Logger, dirs layout.Dirs, name string, draw func(*pipeline.MiddleData) ([]byte, error), mid *pipeline.MiddleData) {
	img, err := draw(mid)
	if err == nil {
		err = d.write(ctx, img, filepath.Join(dirs.Artifact, name), storage.ModeBinary)
	}
	if err != nil {
		log.Warn("skipping overlay", "file", name, "error", err)
	}
}

func (d *Driver) writeJSON(ctx context.Context, v any, p string) error {
	data, err := storage.EncodeJSON(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(p), err)
	}
	return d.write(ctx, data, p, storage.ModeText)
}

func (d *Driver) write(ctx context.Context, data []byte, p string, mode storage.Mode) error {
	if err := d.store.Write(ctx, data, p, mode); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(p), err)
	}
	return nil
}
