// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pdiddy/pdfbatch/internal/analyze"
	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/pdftext"
	"github.com/pdiddy/pdfbatch/internal/storage"
)

func (b *base) parse(ctx context.Context) (*MiddleData, error) {
	doc, err := b.textLayer()
	if err != nil {
		if b.parseType == ParseText {
			return nil, err
		}
		// Scanned files may have no readable text layer at all; OCR text
		// and model page sizes are enough.
		b.deps.Logger.Debug("no text layer, using model page sizes", "error", err)
		doc = nil
	}
	cropper, _ := b.deps.Analyzer.(analyze.Cropper)

	mid := &MiddleData{
		PDFInfo:   make([]PageInfo, 0, len(b.models)),
		ParseType: b.parseType,
		Version:   VersionName,
	}
	for _, rec := range b.models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var tp *pdftext.Page
		if doc != nil && rec.PageInfo.PageNo < len(doc.Pages) {
			tp = &doc.Pages[rec.PageInfo.PageNo]
		}
		page, err := b.parsePage(ctx, rec, tp, cropper)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", rec.PageInfo.PageNo, err)
		}
		mid.PDFInfo = append(mid.PDFInfo, page)
	}
	return mid, nil
}

// scaler maps model coordinates onto text-layer page points. Models that
// work on rendered images report pixel coordinates.
type scaler struct{ sx, sy float64 }

func (s scaler) box(b model.BBox) model.BBox {
	return model.BBox{b[0] * s.sx, b[1] * s.sy, b[2] * s.sx, b[3] * s.sy}
}

func (b *base) parsePage(ctx context.Context, rec model.PageRecord, tp *pdftext.Page, cropper analyze.Cropper) (PageInfo, error) {
	idx := rec.PageInfo.PageNo
	page := PageInfo{
		PageIdx:         idx,
		PageSize:        [2]float64{rec.PageInfo.Width, rec.PageInfo.Height},
		ParaBlocks:      []Block{},
		DiscardedBlocks: []Block{},
		DropReason:      []string{},
	}
	sc := scaler{1, 1}
	if tp != nil {
		page.PageSize = [2]float64{tp.Width, tp.Height}
		sc = scaler{tp.Width / rec.PageInfo.Width, tp.Height / rec.PageInfo.Height}
	}

	dets := sortDets(rec.LayoutDets)
	var src lineSource
	if b.parseType == ParseText {
		src = newTextIndex(tp)
	} else {
		src = newOCRIndex(dets, sc)
	}

	for _, det := range dets {
		box := sc.box(det.BBox())
		switch det.CategoryID {
		case model.CategoryTitle:
			if lines := src.take(box, det); len(lines) > 0 {
				page.ParaBlocks = append(page.ParaBlocks, Block{Type: BlockTitle, BBox: box, Lines: lines, Level: 1})
			}
		case model.CategoryText, model.CategoryFigureCaption, model.CategoryTableCaption,
			model.CategoryTableFootnote, model.CategoryFormulaCaption:
			if lines := src.take(box, det); len(lines) > 0 {
				page.ParaBlocks = append(page.ParaBlocks, Block{Type: BlockText, BBox: box, Lines: lines})
			}
		case model.CategoryFigure, model.CategoryTable:
			name, err := b.crop(ctx, cropper, idx, det)
			if err != nil {
				return PageInfo{}, err
			}
			typ, spanType := BlockImage, SpanImage
			if det.CategoryID == model.CategoryTable {
				typ, spanType = BlockTable, SpanTable
			}
			page.ParaBlocks = append(page.ParaBlocks, Block{
				Type:      typ,
				BBox:      box,
				ImagePath: name,
				Lines: []MiddleLine{{BBox: box, Spans: []MiddleSpan{
					{BBox: box, Type: spanType, ImagePath: name},
				}}},
			})
		case model.CategoryIsolatedFormula, model.CategoryFormulaLatex:
			latex := strings.TrimSpace(det.Latex)
			if latex == "" {
				latex = strings.Join(Block{Lines: src.take(box, det)}.Text(), " ")
			}
			if latex == "" {
				continue
			}
			page.ParaBlocks = append(page.ParaBlocks, Block{
				Type: BlockEquation,
				BBox: box,
				Lines: []MiddleLine{{BBox: box, Spans: []MiddleSpan{
					{BBox: box, Type: SpanEquation, Content: latex},
				}}},
			})
		case model.CategoryAbandon:
			page.DiscardedBlocks = append(page.DiscardedBlocks, Block{
				Type:  BlockDiscarded,
				BBox:  box,
				Lines: src.take(box, det),
			})
		}
	}
	page.ParaBlocks = append(page.ParaBlocks, src.rest()...)

	if b.parseType == ParseText && tp != nil && tp.GarbledRatio() > MaxGarbledRatio {
		page.NeedDrop = true
		page.DropReason = append(page.DropReason, DropReasonGarbled)
	}
	return page, nil
}

// sortDets orders detections top to bottom, then left to right.
func sortDets(dets []model.Det) []model.Det {
	out := make([]model.Det, len(dets))
	copy(out, dets)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].BBox(), out[j].BBox()
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[0] < b[0]
	})
	return out
}

// lineSource hands out the lines that fall inside a detection. Each line
// is handed out at most once.
type lineSource interface {
	take(box model.BBox, det model.Det) []MiddleLine
	// rest returns blocks for content no detection claimed.
	rest() []Block
}

// textIndex serves spans from the PDF text layer.
type textIndex struct {
	lines []pdftext.Line
	used  [][]bool
}

func newTextIndex(tp *pdftext.Page) *textIndex {
	x := &textIndex{}
	if tp == nil {
		return x
	}
	x.lines = tp.Lines
	x.used = make([][]bool, len(tp.Lines))
	for i, l := range tp.Lines {
		x.used[i] = make([]bool, len(l.Spans))
	}
	return x
}

func (x *textIndex) take(box model.BBox, _ model.Det) []MiddleLine {
	var out []MiddleLine
	for i, l := range x.lines {
		var ml MiddleLine
		for j, s := range l.Spans {
			if x.used[i][j] || !box.Contains(s.BBox.Center()) {
				continue
			}
			x.used[i][j] = true
			ml.Spans = append(ml.Spans, MiddleSpan{BBox: s.BBox, Content: s.Text, Type: SpanText})
			ml.BBox = ml.BBox.Union(s.BBox)
		}
		if len(ml.Spans) > 0 {
			out = append(out, ml)
		}
	}
	return out
}

// Text-layer spans outside every detection are layout noise.
func (x *textIndex) rest() []Block { return nil }

// ocrIndex serves text recognised by OCR: either a detection's own text or
// OCR text detections inside it.
type ocrIndex struct {
	spans []MiddleSpan
	used  []bool
}

func newOCRIndex(dets []model.Det, sc scaler) *ocrIndex {
	x := &ocrIndex{}
	for _, d := range dets {
		if d.CategoryID != model.CategoryOCRText || strings.TrimSpace(d.Text) == "" {
			continue
		}
		x.spans = append(x.spans, MiddleSpan{BBox: sc.box(d.BBox()), Content: strings.TrimSpace(d.Text), Type: SpanText})
	}
	x.used = make([]bool, len(x.spans))
	return x
}

func (x *ocrIndex) take(box model.BBox, det model.Det) []MiddleLine {
	if text := strings.TrimSpace(det.Text); text != "" {
		rows := strings.Split(text, "\n")
		h := box.Height() / float64(len(rows))
		out := make([]MiddleLine, 0, len(rows))
		for i, r := range rows {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}
			lb := model.BBox{box[0], box[1] + float64(i)*h, box[2], box[1] + float64(i+1)*h}
			out = append(out, MiddleLine{BBox: lb, Spans: []MiddleSpan{{BBox: lb, Content: r, Type: SpanText}}})
		}
		return out
	}
	var out []MiddleLine
	for i, s := range x.spans {
		if x.used[i] || !box.Contains(s.BBox.Center()) {
			continue
		}
		x.used[i] = true
		out = append(out, MiddleLine{BBox: s.BBox, Spans: []MiddleSpan{s}})
	}
	return out
}

// OCR text outside every layout detection still becomes a paragraph.
func (x *ocrIndex) rest() []Block {
	var out []Block
	for i, s := range x.spans {
		if x.used[i] {
			continue
		}
		x.used[i] = true
		out = append(out, Block{Type: BlockText, BBox: s.BBox, Lines: []MiddleLine{{BBox: s.BBox, Spans: []MiddleSpan{s}}}})
	}
	return out
}

// crop fetches the image under det and stores it. A failed crop leaves the
// block without an image; only cancellation is returned as an error.
func (b *base) crop(ctx context.Context, cropper analyze.Cropper, page int, det model.Det) (string, error) {
	if cropper == nil || b.deps.Images == nil {
		return "", nil
	}
	box := det.BBox()
	img, err := cropper.Crop(ctx, b.pdf, page, box)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		b.deps.Logger.Warn("crop failed", "page", page, "category", det.CategoryID.String(), "error", err)
		return "", nil
	}
	if len(img) == 0 {
		return "", nil
	}
	name := imageName(page, box, img)
	if err := b.deps.Images.Write(ctx, img, name, storage.ModeBinary); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		b.deps.Logger.Warn("writing image failed", "page", page, "image", name, "error", err)
		return "", nil
	}
	return name, nil
}

// imageName derives a stable file name from the crop location.
func imageName(page int, box model.BBox, img []byte) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%g,%g,%g,%g", page, box[0], box[1], box[2], box[3])))
	ext := ".png"
	if http.DetectContentType(img) == "image/jpeg" {
		ext = ".jpg"
	}
	return hex.EncodeToString(sum[:16]) + ext
}
