// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"

	"github.com/pdiddy/pdfbatch/internal/model"
)

// VersionName is written to middle.json so readers can tell which parser
// produced it.
const VersionName = "pdfbatch-1"

// ParseType is the way a document's text was obtained.
type ParseType string

const (
	ParseText ParseType = "txt"
	ParseOCR  ParseType = "ocr"
)

// DropReasonGarbled marks a page whose text layer did not decode.
const DropReasonGarbled = "garbled_text_layer"

// DropMode controls which pages are omitted from the outputs.
type DropMode string

const (
	DropNone       DropMode = "none"
	DropSinglePage DropMode = "single_page"
	DropWholePDF   DropMode = "whole_pdf"
)

// ParseDropMode validates s. An empty string selects DropNone.
func ParseDropMode(s string) (DropMode, error) {
	switch DropMode(s) {
	case "", DropNone:
		return DropNone, nil
	case DropSinglePage, DropWholePDF:
		return DropMode(s), nil
	}
	return "", fmt.Errorf("unknown drop mode %q: use 'none', 'single_page' or 'whole_pdf'", s)
}

// MakeMode selects the Markdown flavour.
type MakeMode string

const (
	MakeMMMarkdown  MakeMode = "mm_md"
	MakeNLPMarkdown MakeMode = "nlp_md"
	MakeStandard    MakeMode = "standard_format"
)

// ParseMakeMode validates s. An empty string selects MakeMMMarkdown.
func ParseMakeMode(s string) (MakeMode, error) {
	switch MakeMode(s) {
	case "", MakeMMMarkdown:
		return MakeMMMarkdown, nil
	case MakeNLPMarkdown, MakeStandard:
		return MakeMode(s), nil
	}
	return "", fmt.Errorf("unknown make mode %q: use 'mm_md', 'nlp_md' or 'standard_format'", s)
}

// BlockType is the kind of a para block.
type BlockType string

const (
	BlockTitle     BlockType = "title"
	BlockText      BlockType = "text"
	BlockImage     BlockType = "image"
	BlockTable     BlockType = "table"
	BlockEquation  BlockType = "interline_equation"
	BlockDiscarded BlockType = "discarded"
)

// SpanType is the kind of a span inside a line.
type SpanType string

const (
	SpanText     SpanType = "text"
	SpanEquation SpanType = "interline_equation"
	SpanImage    SpanType = "image"
	SpanTable    SpanType = "table"
)

// MiddleSpan is a run of content inside a line.
type MiddleSpan struct {
	BBox    model.BBox `json:"bbox"`
	Content string     `json:"content,omitempty"`
	Type    SpanType   `json:"type"`
	// ImagePath is the image file name for image and table spans.
	ImagePath string `json:"image_path,omitempty"`
}

// MiddleLine is a row of spans.
type MiddleLine struct {
	BBox  model.BBox   `json:"bbox"`
	Spans []MiddleSpan `json:"spans"`
}

// Block is one para block on a page.
type Block struct {
	Type  BlockType    `json:"type"`
	BBox  model.BBox   `json:"bbox"`
	Lines []MiddleLine `json:"lines"`
	// Level is the heading level of a title block.
	Level int `json:"level,omitempty"`
	// ImagePath is the file name of a cropped figure or table, relative
	// to the images directory. Empty when no crop was available.
	ImagePath string `json:"image_path,omitempty"`
}

// Text returns the block's line texts.
func (b Block) Text() []string {
	out := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		var s string
		for i, sp := range l.Spans {
			if i > 0 && s != "" && sp.Content != "" {
				s += " "
			}
			s += sp.Content
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PageInfo is the parsed content of one page.
type PageInfo struct {
	PageIdx         int        `json:"page_idx"`
	PageSize        [2]float64 `json:"page_size"`
	ParaBlocks      []Block    `json:"para_blocks"`
	DiscardedBlocks []Block    `json:"discarded_blocks"`
	NeedDrop        bool       `json:"need_drop"`
	DropReason      []string   `json:"drop_reason"`
}

// MiddleData is the parse result written to middle.json.
type MiddleData struct {
	PDFInfo   []PageInfo `json:"pdf_info"`
	ParseType ParseType  `json:"_parse_type"`
	Version   string     `json:"_version_name"`
}
