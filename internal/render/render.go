// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render draws bounding-box overlays of parsed pages. Pages are
// drawn on blank canvases of their own size and stacked top to bottom
// into a single PNG, scaled down as a whole when the stack would exceed
// the pixel budget.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/pipeline"
)

const (
	// LayoutFile and SpansFile are the overlay file names.
	LayoutFile = "layout.png"
	SpansFile  = "spans.png"

	pageGap = 16
	stroke  = 2
	// maxPixels bounds the canvas area. Larger stacks are scaled to fit.
	maxPixels = 32 << 20
	// fitAttempts bounds the shrink loop in fit.
	fitAttempts = 64
)

var (
	background = color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	gapColor   = color.NRGBA{0xC8, 0xC8, 0xC8, 0xFF}
	labelColor = color.NRGBA{0x20, 0x20, 0x20, 0xFF}

	blockColors = map[pipeline.BlockType]color.NRGBA{
		pipeline.BlockTitle:     {0x66, 0x33, 0xCC, 0xFF},
		pipeline.BlockText:      {0x00, 0x80, 0xFF, 0xFF},
		pipeline.BlockImage:     {0x00, 0xB0, 0x50, 0xFF},
		pipeline.BlockTable:     {0xFF, 0xA5, 0x00, 0xFF},
		pipeline.BlockEquation:  {0xE0, 0x30, 0x60, 0xFF},
		pipeline.BlockDiscarded: {0x90, 0x90, 0x90, 0xFF},
	}
	spanColors = map[pipeline.SpanType]color.NRGBA{
		pipeline.SpanText:     {0xFF, 0x00, 0x00, 0xFF},
		pipeline.SpanEquation: {0x00, 0xFF, 0x00, 0xFF},
		pipeline.SpanImage:    {0xFF, 0xCC, 0x00, 0xFF},
		pipeline.SpanTable:    {0x00, 0x00, 0xFF, 0xFF},
	}
)

// ErrNoPages is returned when there is nothing to draw.
var ErrNoPages = errors.New("render: no pages")

// Layout draws every para block and discarded block, labelled with its
// reading order on the page.
func Layout(mid *pipeline.MiddleData) ([]byte, error) {
	return drawPages(mid, func(c *canvas, page pipeline.PageInfo) {
		for i, b := range page.ParaBlocks {
			c.outline(b.BBox, blockColors[b.Type])
			c.label(b.BBox, fmt.Sprint(i+1))
		}
		for _, b := range page.DiscardedBlocks {
			c.outline(b.BBox, blockColors[pipeline.BlockDiscarded])
		}
	})
}

// Spans draws the box of every span, coloured by span type.
func Spans(mid *pipeline.MiddleData) ([]byte, error) {
	return drawPages(mid, func(c *canvas, page pipeline.PageInfo) {
		each := func(blocks []pipeline.Block) {
			for _, b := range blocks {
				for _, l := range b.Lines {
					for _, s := range l.Spans {
						c.outline(s.BBox, spanColors[s.Type])
					}
				}
			}
		}
		each(page.ParaBlocks)
		each(page.DiscardedBlocks)
	})
}

// canvas is the stacked image with the origin and scale of the page being
// painted.
type canvas struct {
	dst   *image.NRGBA
	top   int
	scale float64
}

func drawPages(mid *pipeline.MiddleData, paint func(*canvas, pipeline.PageInfo)) ([]byte, error) {
	if mid == nil || len(mid.PDFInfo) == 0 {
		return nil, ErrNoPages
	}
	scale, width, height, err := fit(mid.PDFInfo)
	if err != nil {
		return nil, err
	}

	c := &canvas{dst: image.NewNRGBA(image.Rect(0, 0, width, height)), scale: scale}
	draw.Draw(c.dst, c.dst.Bounds(), image.NewUniform(gapColor), image.Point{}, draw.Src)
	gap := scaledGap(scale)
	for _, p := range mid.PDFInfo {
		w, h := pageDims(p, scale)
		r := image.Rect(0, c.top, w, c.top+h)
		draw.Draw(c.dst, r, image.NewUniform(background), image.Point{}, draw.Src)
		paint(c, p)
		c.top = r.Max.Y + gap
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, c.dst); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// fit returns the largest scale not above 1 at which the stacked pages fit
// in maxPixels, with the resulting canvas size.
func fit(pages []pipeline.PageInfo) (float64, int, int, error) {
	scale := 1.0
	for range fitAttempts {
		w, h := stackDims(pages, scale)
		if w <= 0 || h <= 0 {
			return 0, 0, 0, fmt.Errorf("render: canvas %dx%d out of range", w, h)
		}
		area := float64(w) * float64(h)
		if area <= maxPixels {
			return scale, w, h, nil
		}
		scale = math.Min(scale*0.9, scale*math.Sqrt(maxPixels/area))
	}
	return 0, 0, 0, fmt.Errorf("render: %d pages do not fit in %d pixels", len(pages), maxPixels)
}

func stackDims(pages []pipeline.PageInfo, scale float64) (int, int) {
	width, height := 0, 0
	for i, p := range pages {
		w, h := pageDims(p, scale)
		width = max(width, w)
		height += h
		if i > 0 {
			height += scaledGap(scale)
		}
	}
	return width, height
}

func pageDims(p pipeline.PageInfo, scale float64) (int, int) {
	return px(p.PageSize[0] * scale), px(p.PageSize[1] * scale)
}

func scaledGap(scale float64) int { return max(1, int(math.Round(pageGap*scale))) }

func px(v float64) int { return int(math.Ceil(v)) }

func (c *canvas) rect(b model.BBox) image.Rectangle {
	s := c.scale
	return image.Rect(int(b[0]*s), c.top+int(b[1]*s), px(b[2]*s), c.top+px(b[3]*s))
}

// outline strokes the box and gives it a light tint.
func (c *canvas) outline(b model.BBox, col color.NRGBA) {
	r := c.rect(b).Intersect(c.dst.Bounds())
	if r.Empty() {
		return
	}
	tint := col
	tint.A = 0x30
	draw.Draw(c.dst, r, image.NewUniform(tint), image.Point{}, draw.Over)

	edge := image.NewUniform(col)
	for _, e := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+stroke),
		image.Rect(r.Min.X, r.Max.Y-stroke, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+stroke, r.Max.Y),
		image.Rect(r.Max.X-stroke, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(c.dst, e.Intersect(r), edge, image.Point{}, draw.Src)
	}
}

// label writes s just inside the top-left corner of the box.
func (c *canvas) label(b model.BBox, s string) {
	r := c.rect(b)
	d := font.Drawer{
		Dst:  c.dst,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(r.Min.X+stroke+1, r.Min.Y+stroke+basicfont.Face7x13.Ascent),
	}
	d.DrawString(s)
}
