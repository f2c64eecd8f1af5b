// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/pipeline"
)

func middle() *pipeline.MiddleData {
	span := pipeline.MiddleSpan{BBox: model.BBox{20, 20, 80, 30}, Content: "hello", Type: pipeline.SpanText}
	return &pipeline.MiddleData{PDFInfo: []pipeline.PageInfo{
		{
			PageIdx:  0,
			PageSize: [2]float64{200, 100},
			ParaBlocks: []pipeline.Block{{
				Type:  pipeline.BlockText,
				BBox:  model.BBox{10, 10, 120, 60},
				Lines: []pipeline.MiddleLine{{BBox: span.BBox, Spans: []pipeline.MiddleSpan{span}}},
			}},
			DiscardedBlocks: []pipeline.Block{{Type: pipeline.BlockDiscarded, BBox: model.BBox{0, 80, 50, 95}}},
		},
		{PageIdx: 1, PageSize: [2]float64{150, 50.5}},
	}}
}

func TestLayout(t *testing.T) {
	data, err := Layout(middle())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, 200, b.Dx())
	assert.Equal(t, 100+pageGap+51, b.Dy())

	// Left edge of the text block is stroked in the text colour.
	assert.Equal(t, colorOf(blockColors[pipeline.BlockText]), colorOf(img.At(10, 30)))
	// Outside every box the page is white.
	assert.Equal(t, colorOf(background), colorOf(img.At(190, 5)))
	// The second page is narrower; the rest of its row is gap.
	assert.Equal(t, colorOf(gapColor), colorOf(img.At(190, 100+pageGap+10)))
}

func TestSpans(t *testing.T) {
	data, err := Spans(middle())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, colorOf(spanColors[pipeline.SpanText]), colorOf(img.At(20, 25)))
	// Block edges are not drawn on the span overlay.
	assert.Equal(t, colorOf(background), colorOf(img.At(10, 45)))
}

func TestNoPages(t *testing.T) {
	_, err := Layout(nil)
	assert.ErrorIs(t, err, ErrNoPages)
	_, err = Spans(&pipeline.MiddleData{})
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestFitScalesLongStacks(t *testing.T) {
	pages := make([]pipeline.PageInfo, 150)
	for i := range pages {
		pages[i] = pipeline.PageInfo{PageIdx: i, PageSize: [2]float64{612, 792}}
	}
	scale, w, h, err := fit(pages)
	require.NoError(t, err)
	assert.Less(t, scale, 1.0)
	assert.LessOrEqual(t, w*h, maxPixels)
	assert.Equal(t, px(612*scale), w)

	scale, w, h, err = fit(middle().PDFInfo)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scale, "small stacks keep page size")
	assert.Equal(t, 200, w)
	assert.Equal(t, 100+pageGap+51, h)
}

func TestLayoutScalesHugePage(t *testing.T) {
	mid := &pipeline.MiddleData{PDFInfo: []pipeline.PageInfo{{
		PageSize:   [2]float64{40000, 40000},
		ParaBlocks: []pipeline.Block{{Type: pipeline.BlockText, BBox: model.BBox{0, 0, 20000, 20000}}},
	}}}
	data, err := Layout(mid)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	b := img.Bounds()
	assert.LessOrEqual(t, b.Dx()*b.Dy(), maxPixels)
	assert.Equal(t, b.Dx(), b.Dy())
	// The block covers the top-left quarter at any scale.
	assert.Equal(t, colorOf(blockColors[pipeline.BlockText]), colorOf(img.At(0, b.Dy()/4)))
	assert.Equal(t, colorOf(background), colorOf(img.At(b.Dx()-5, b.Dy()-5)))
}

func TestFitRejectsEmptyPage(t *testing.T) {
	_, err := Layout(&pipeline.MiddleData{PDFInfo: []pipeline.PageInfo{{PageSize: [2]float64{0, 0}}}})
	assert.Error(t, err)
}

func colorOf(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
