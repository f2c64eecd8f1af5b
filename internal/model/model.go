// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model defines the per-page records produced by layout inference
// and persisted as model.json.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Category is the layout class of a detection.
type Category int

const (
	CategoryTitle           Category = 0
	CategoryText            Category = 1
	CategoryAbandon         Category = 2
	CategoryFigure          Category = 3
	CategoryFigureCaption   Category = 4
	CategoryTable           Category = 5
	CategoryTableCaption    Category = 6
	CategoryTableFootnote   Category = 7
	CategoryIsolatedFormula Category = 8
	CategoryFormulaCaption  Category = 9
	CategoryInlineFormula   Category = 13
	CategoryFormulaLatex    Category = 14
	CategoryOCRText         Category = 15
)

func (c Category) String() string {
	switch c {
	case CategoryTitle:
		return "title"
	case CategoryText:
		return "text"
	case CategoryAbandon:
		return "abandon"
	case CategoryFigure:
		return "figure"
	case CategoryFigureCaption:
		return "figure_caption"
	case CategoryTable:
		return "table"
	case CategoryTableCaption:
		return "table_caption"
	case CategoryTableFootnote:
		return "table_footnote"
	case CategoryIsolatedFormula:
		return "isolate_formula"
	case CategoryFormulaCaption:
		return "formula_caption"
	case CategoryInlineFormula:
		return "inline_formula"
	case CategoryFormulaLatex:
		return "formula_latex"
	case CategoryOCRText:
		return "ocr_text"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// BBox is a rectangle [x0, y0, x1, y1] in page points, origin top-left.
type BBox [4]float64

// Width returns x1 - x0.
func (b BBox) Width() float64 { return b[2] - b[0] }

// Height returns y1 - y0.
func (b BBox) Height() float64 { return b[3] - b[1] }

// Center returns the midpoint of the box.
func (b BBox) Center() (x, y float64) {
	return (b[0] + b[2]) / 2, (b[1] + b[3]) / 2
}

// Contains reports whether the point lies inside the box, edges included.
func (b BBox) Contains(x, y float64) bool {
	return x >= b[0] && x <= b[2] && y >= b[1] && y <= b[3]
}

// Union returns the smallest box covering b and o. A zero box is treated
// as empty.
func (b BBox) Union(o BBox) BBox {
	if b == (BBox{}) {
		return o
	}
	if o == (BBox{}) {
		return b
	}
	return BBox{
		math.Min(b[0], o[0]), math.Min(b[1], o[1]),
		math.Max(b[2], o[2]), math.Max(b[3], o[3]),
	}
}

// Det is one layout detection on a page.
type Det struct {
	CategoryID Category `json:"category_id"`
	// Poly holds four corner points x0,y0,x1,y0,x1,y1,x0,y1.
	Poly  []float64 `json:"poly"`
	Score float64   `json:"score"`
	// Text is set by OCR detections.
	Text string `json:"text,omitempty"`
	// Latex is set by formula recognition.
	Latex string `json:"latex,omitempty"`
}

// NewDet builds a detection covering box.
func NewDet(cat Category, box BBox, score float64) Det {
	return Det{
		CategoryID: cat,
		Poly:       []float64{box[0], box[1], box[2], box[1], box[2], box[3], box[0], box[3]},
		Score:      score,
	}
}

// BBox returns the axis-aligned bounds of Poly.
func (d Det) BBox() BBox {
	if len(d.Poly) < 8 {
		return BBox{}
	}
	box := BBox{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i+1 < len(d.Poly); i += 2 {
		x, y := d.Poly[i], d.Poly[i+1]
		box[0] = math.Min(box[0], x)
		box[1] = math.Min(box[1], y)
		box[2] = math.Max(box[2], x)
		box[3] = math.Max(box[3], y)
	}
	return box
}

// PageInfo identifies the page a record describes.
type PageInfo struct {
	PageNo int     `json:"page_no"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageRecord is the inference result for one page.
type PageRecord struct {
	LayoutDets []Det    `json:"layout_dets"`
	PageInfo   PageInfo `json:"page_info"`
}

// Records is the model artifact of a document, one record per page in
// page order.
type Records []PageRecord

// ErrInvalid is wrapped by Validate and Decode failures.
var ErrInvalid = errors.New("invalid model records")

// Validate checks that r has the shape the parser relies on: at least one
// page, page numbers 0..n-1 in order, positive page sizes, 8-value polygons,
// and scores in [0, 1].
func (r Records) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("%w: no pages", ErrInvalid)
	}
	for i, rec := range r {
		if rec.PageInfo.PageNo != i {
			return fmt.Errorf("%w: record %d has page_no %d", ErrInvalid, i, rec.PageInfo.PageNo)
		}
		if rec.PageInfo.Width <= 0 || rec.PageInfo.Height <= 0 {
			return fmt.Errorf("%w: page %d has size %gx%g", ErrInvalid, i, rec.PageInfo.Width, rec.PageInfo.Height)
		}
		for j, det := range rec.LayoutDets {
			if len(det.Poly) != 8 {
				return fmt.Errorf("%w: page %d det %d has %d poly values", ErrInvalid, i, j, len(det.Poly))
			}
			if det.Score < 0 || det.Score > 1 || math.IsNaN(det.Score) {
				return fmt.Errorf("%w: page %d det %d has score %g", ErrInvalid, i, j, det.Score)
			}
		}
	}
	return nil
}

// Decode parses and validates model.json content.
func Decode(data []byte) (Records, error) {
	var recs Records
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := recs.Validate(); err != nil {
		return nil, err
	}
	return recs, nil
}

// Clone returns a deep copy of r.
func (r Records) Clone() Records {
	if r == nil {
		return nil
	}
	out := make(Records, len(r))
	for i, rec := range r {
		dets := make([]Det, len(rec.LayoutDets))
		for j, d := range rec.LayoutDets {
			d.Poly = append([]float64(nil), d.Poly...)
			dets[j] = d
		}
		out[i] = PageRecord{LayoutDets: dets, PageInfo: rec.PageInfo}
	}
	return out
}
