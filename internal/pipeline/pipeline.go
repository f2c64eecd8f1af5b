// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline turns a PDF and its model records into structured page
// data, Markdown, and a flat content list. The auto, txt and ocr variants
// share one contract and differ in how they decide the parse type.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdiddy/pdfbatch/internal/analyze"
	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/pdftext"
	"github.com/pdiddy/pdfbatch/internal/storage"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

// Pipeline is one document's parse state. Classify must run first, then
// Analyze when no model records were supplied, then Parse; the Make methods
// read the parsed result.
type Pipeline interface {
	Classify(ctx context.Context) error
	Analyze(ctx context.Context) error
	Parse(ctx context.Context) error
	MakeMarkdown(imageDir string, drop DropMode, mode MakeMode) (string, error)
	MakeContentList(imageDir string, drop DropMode) ([]ContentBlock, error)
	MiddleData() *MiddleData
	ModelList() model.Records
}

// ErrNotParsed is returned by the Make methods before Parse succeeds.
var ErrNotParsed = errors.New("pipeline: document not parsed")

// ErrNoAnalyzer is returned by Analyze when no analyzer was configured.
var ErrNoAnalyzer = errors.New("pipeline: no analyzer configured")

// Deps are the collaborators of a pipeline.
type Deps struct {
	// Analyzer runs model inference. It may also implement
	// analyze.Cropper to supply figure and table images.
	Analyzer analyze.Analyzer
	// Images receives extracted images, addressed by file name.
	Images storage.ReaderWriter
	Logger *slog.Logger
}

// New returns the pipeline variant for method. models may be empty, in
// which case Analyze must be called before Parse. The pipeline keeps its own
// copy of models.
func New(method types.Method, pdf []byte, models model.Records, deps Deps) (Pipeline, error) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := base{pdf: pdf, models: models.Clone(), deps: deps}
	switch method {
	case types.MethodAuto:
		return &autoPipe{base: b}, nil
	case types.MethodText:
		return &textPipe{base: b}, nil
	case types.MethodOCR:
		return &ocrPipe{base: b}, nil
	default:
		return nil, fmt.Errorf("%w %q: use 'auto', 'txt' or 'ocr'", types.ErrUnknownMethod, method)
	}
}

// autoPipe picks txt or ocr from the text layer.
type autoPipe struct{ base }

func (p *autoPipe) Classify(context.Context) error {
	doc, err := p.textLayer()
	if err != nil {
		return fmt.Errorf("classifying: %w", err)
	}
	p.parseType = Classify(doc)
	p.deps.Logger.Debug("classified document", "parse_type", p.parseType, "pages", len(doc.Pages))
	return nil
}

// textPipe always parses the text layer.
type textPipe struct{ base }

func (p *textPipe) Classify(context.Context) error {
	if _, err := p.textLayer(); err != nil {
		return fmt.Errorf("classifying: %w", err)
	}
	p.parseType = ParseText
	return nil
}

// ocrPipe always takes text from OCR detections.
type ocrPipe struct{ base }

func (p *ocrPipe) Classify(context.Context) error {
	p.parseType = ParseOCR
	return nil
}

// base carries the state shared by every variant.
type base struct {
	pdf    []byte
	models model.Records
	deps   Deps

	parseType ParseType
	text      *pdftext.Document
	textErr   error
	textRead  bool
	mid       *MiddleData
}

// textLayer reads the text layer once.
func (b *base) textLayer() (*pdftext.Document, error) {
	if !b.textRead {
		b.text, b.textErr = pdftext.Read(b.pdf)
		b.textRead = true
	}
	return b.text, b.textErr
}

func (b *base) Analyze(ctx context.Context) error {
	if b.parseType == "" {
		return errors.New("pipeline: Analyze called before Classify")
	}
	if b.deps.Analyzer == nil {
		return ErrNoAnalyzer
	}
	recs, err := b.deps.Analyzer.Analyze(ctx, b.pdf, b.parseType == ParseOCR)
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}
	b.models = recs
	return nil
}

func (b *base) Parse(ctx context.Context) error {
	if b.parseType == "" {
		return errors.New("pipeline: Parse called before Classify")
	}
	if len(b.models) == 0 {
		return errors.New("pipeline: Parse called without model records")
	}
	mid, err := b.parse(ctx)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	b.mid = mid
	return nil
}

func (b *base) MiddleData() *MiddleData { return b.mid }

func (b *base) ModelList() model.Records { return b.models }
