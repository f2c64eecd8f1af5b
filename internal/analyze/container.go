// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/pdiddy/pdfbatch/internal/container"
	"github.com/pdiddy/pdfbatch/internal/model"
)

// Container runs layout and OCR inference in a container image. The image
// reads the PDF on stdin and implements two commands:
//
//	analyze --method txt|ocr          writes model records as JSON
//	crop --page N --bbox x0,y0,x1,y1  writes the region as an image
type Container struct {
	runtime container.Runtime
	image   string
}

// NewContainer verifies that image exists in rt before returning.
func NewContainer(rt container.Runtime, image string) (*Container, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("analyzer image not available in %s: %w", rt.Name(), err)
	}
	return &Container{runtime: rt, image: image}, nil
}

func (c *Container) Analyze(ctx context.Context, pdf []byte, ocr bool) (model.Records, error) {
	var out bytes.Buffer
	args := []string{"analyze", "--method", methodArg(ocr)}
	if err := c.runtime.Run(ctx, c.image, args, bytes.NewReader(pdf), &out); err != nil {
		return nil, fmt.Errorf("container analyzer: %w", err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("container analyzer %s produced empty output", c.image)
	}
	recs, err := model.Decode(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("container analyzer output: %w", err)
	}
	return recs, nil
}

func (c *Container) Crop(ctx context.Context, pdf []byte, page int, box model.BBox) ([]byte, error) {
	var out bytes.Buffer
	args := []string{"crop", "--page", strconv.Itoa(page), "--bbox", bboxArg(box)}
	if err := c.runtime.Run(ctx, c.image, args, bytes.NewReader(pdf), &out); err != nil {
		return nil, fmt.Errorf("container crop: %w", err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("container crop of page %d produced no image", page)
	}
	return out.Bytes(), nil
}
