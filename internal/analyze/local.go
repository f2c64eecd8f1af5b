// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/pdftext"
)

const (
	// marginRatio is the share of page height treated as header or footer.
	marginRatio = 0.05
	// titleRatio is how much larger than body text a title must be.
	titleRatio = 1.25
	// maxTitleLines bounds the length of a title block.
	maxTitleLines = 3

	scoreText    = 0.9
	scoreTitle   = 0.85
	scoreAbandon = 0.8
)

// Local derives layout from the text layer. Lines are grouped into blocks
// by vertical gap and font size; it has no image model, so OCR is not
// available.
type Local struct{}

// NewLocal returns the text-layer analyzer.
func NewLocal() *Local { return &Local{} }

func (l *Local) Analyze(ctx context.Context, pdf []byte, ocr bool) (model.Records, error) {
	if ocr {
		return nil, fmt.Errorf("local analyzer: %w", ErrOCRUnsupported)
	}
	doc, err := pdftext.Read(pdf)
	if err != nil {
		return nil, fmt.Errorf("local analyzer: %w", err)
	}

	recs := make(model.Records, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs = append(recs, model.PageRecord{
			PageInfo:   model.PageInfo{PageNo: page.Index, Width: page.Width, Height: page.Height},
			LayoutDets: LayoutPage(page),
		})
	}
	return recs, nil
}

// LayoutPage groups the lines of page into title, text and abandon
// detections.
func LayoutPage(page pdftext.Page) []model.Det {
	if len(page.Lines) == 0 {
		return []model.Det{}
	}
	body := bodyFontSize(page.Lines)

	var dets []model.Det
	for _, block := range groupBlocks(page.Lines) {
		var box model.BBox
		var size float64
		for _, l := range block {
			box = box.Union(l.BBox)
			size = math.Max(size, l.FontSize())
		}
		switch {
		case len(block) == 1 && inMargin(box, page.Height):
			dets = append(dets, model.NewDet(model.CategoryAbandon, box, scoreAbandon))
		case size >= titleRatio*body && len(block) <= maxTitleLines:
			dets = append(dets, model.NewDet(model.CategoryTitle, box, scoreTitle))
		default:
			dets = append(dets, model.NewDet(model.CategoryText, box, scoreText))
		}
	}
	return dets
}

func inMargin(box model.BBox, height float64) bool {
	return box[3] <= marginRatio*height || box[1] >= (1-marginRatio)*height
}

// groupBlocks starts a new block when the gap to the previous line exceeds
// its height or the font size changes by more than 20%.
func groupBlocks(lines []pdftext.Line) [][]pdftext.Line {
	var blocks [][]pdftext.Line
	for i, l := range lines {
		if i == 0 {
			blocks = append(blocks, []pdftext.Line{l})
			continue
		}
		prev := lines[i-1]
		gap := l.BBox[1] - prev.BBox[3]
		ps, cs := prev.FontSize(), l.FontSize()
		sizeChange := math.Abs(ps-cs) > 0.2*math.Max(ps, cs)
		if gap > prev.BBox.Height() || sizeChange {
			blocks = append(blocks, []pdftext.Line{l})
			continue
		}
		n := len(blocks) - 1
		blocks[n] = append(blocks[n], l)
	}
	return blocks
}

// bodyFontSize is the median line font size weighted by characters.
func bodyFontSize(lines []pdftext.Line) float64 {
	type sample struct {
		size   float64
		weight int
	}
	var samples []sample
	total := 0
	for _, l := range lines {
		w := len([]rune(l.Text()))
		samples = append(samples, sample{l.FontSize(), w})
		total += w
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].size < samples[j].size })
	acc := 0
	for _, s := range samples {
		acc += s.weight
		if 2*acc >= total {
			return s.size
		}
	}
	return samples[len(samples)-1].size
}
