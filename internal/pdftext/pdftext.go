// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext reads the text layer of a PDF: page sizes and positioned
// text spans in top-left page coordinates.
package pdftext

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdfbatch/internal/model"
)

const (
	// Letter size, used when a page declares no MediaBox.
	defaultWidth  = 612.0
	defaultHeight = 792.0

	ascent  = 0.8
	descent = 0.2
)

// Span is a run of text in one font on one line.
type Span struct {
	Text     string     `json:"text"`
	BBox     model.BBox `json:"bbox"`
	Font     string     `json:"font"`
	FontSize float64    `json:"font_size"`
}

// Line is a row of spans sharing a baseline.
type Line struct {
	BBox  model.BBox `json:"bbox"`
	Spans []Span     `json:"spans"`
}

// Text joins the line's spans with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Spans))
	for _, s := range l.Spans {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// FontSize returns the largest span font size on the line.
func (l Line) FontSize() float64 {
	var size float64
	for _, s := range l.Spans {
		size = math.Max(size, s.FontSize)
	}
	return size
}

// Page is the text layer of one page.
type Page struct {
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Lines  []Line  `json:"lines"`
	// Chars counts non-space characters.
	Chars int `json:"chars"`
	// Replacement counts characters that did not decode to text.
	Replacement int `json:"replacement"`
}

// GarbledRatio returns the share of characters that did not decode.
func (p Page) GarbledRatio() float64 {
	if p.Chars == 0 {
		return 0
	}
	return float64(p.Replacement) / float64(p.Chars)
}

// Document is the text layer of a whole PDF.
type Document struct {
	Pages []Page `json:"pages"`
}

// Read parses the PDF in data. The underlying reader panics on some
// malformed files; those panics are returned as errors.
func Read(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("reading PDF text layer: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	n := r.NumPage()
	doc = &Document{Pages: make([]Page, 0, n)}
	for i := 1; i <= n; i++ {
		doc.Pages = append(doc.Pages, readPage(r.Page(i), i-1))
	}
	return doc, nil
}

func readPage(p pdf.Page, index int) Page {
	w, h := pageSize(p.V)
	page := Page{Index: index, Width: w, Height: h}
	if p.V.IsNull() || p.V.Key("Contents").Kind() == pdf.Null {
		return page
	}

	glyphs := p.Content().Text
	for _, g := range glyphs {
		for _, r := range g.S {
			if unicode.IsSpace(r) {
				continue
			}
			page.Chars++
			if r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
				page.Replacement++
			}
		}
	}
	page.Lines = groupLines(glyphs, h)
	return page
}

// pageSize reads MediaBox from the page or the nearest ancestor.
func pageSize(v pdf.Value) (float64, float64) {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
	}
	return defaultWidth, defaultHeight
}

// groupLines clusters glyphs by baseline, orders each cluster left to
// right, and merges neighbouring glyphs of one font into spans.
func groupLines(glyphs []pdf.Text, pageHeight float64) []Line {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows [][]pdf.Text
	for _, g := range sorted {
		if strings.TrimSpace(g.S) == "" && len(rows) == 0 {
			continue
		}
		if n := len(rows); n > 0 && math.Abs(rows[n-1][0].Y-g.Y) <= tolerance(rows[n-1][0].FontSize) {
			rows[n-1] = append(rows[n-1], g)
			continue
		}
		rows = append(rows, []pdf.Text{g})
	}

	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		if line, ok := buildLine(row, pageHeight); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func tolerance(fontSize float64) float64 {
	return math.Max(fontSize, 1) * 0.5
}

func buildLine(row []pdf.Text, pageHeight float64) (Line, bool) {
	var (
		line    Line
		cur     *Span
		builder strings.Builder
		lastEnd float64
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimSpace(builder.String())
		if cur.Text != "" {
			line.Spans = append(line.Spans, *cur)
			line.BBox = line.BBox.Union(cur.BBox)
		}
		cur = nil
		builder.Reset()
	}

	for _, g := range row {
		size := math.Max(g.FontSize, 1)
		box := model.BBox{
			g.X,
			pageHeight - (g.Y + ascent*size),
			g.X + math.Max(g.W, 0),
			pageHeight - (g.Y - descent*size),
		}
		gap := g.X - lastEnd
		if cur != nil && (g.Font != cur.Font || g.FontSize != cur.FontSize || gap > 2*size) {
			flush()
		}
		if cur == nil {
			cur = &Span{Font: g.Font, FontSize: g.FontSize, BBox: box}
		} else {
			if gap > 0.15*size && !strings.HasSuffix(builder.String(), " ") {
				builder.WriteByte(' ')
			}
			cur.BBox = cur.BBox.Union(box)
		}
		builder.WriteString(g.S)
		lastEnd = g.X + math.Max(g.W, 0)
	}
	flush()
	return line, len(line.Spans) > 0
}
