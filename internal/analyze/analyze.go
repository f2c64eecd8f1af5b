// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze runs layout inference over a PDF and returns model
// records. Backends: a local text-layer heuristic, a container image, and
// an HTTP inference service.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/pdfbatch/internal/container"
	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

// ErrOCRUnsupported is returned by analyzers that cannot recognize text in
// page images.
var ErrOCRUnsupported = errors.New("analyzer cannot run OCR")

// Analyzer produces one model record per page of pdf. When ocr is true the
// records must carry recognized text on their detections.
type Analyzer interface {
	Analyze(ctx context.Context, pdf []byte, ocr bool) (model.Records, error)
}

// Cropper is implemented by analyzers that can render a page region as an
// image. page is zero-based and box is in page points.
type Cropper interface {
	Crop(ctx context.Context, pdf []byte, page int, box model.BBox) ([]byte, error)
}

// New builds the analyzer named by cfg.Backend.
func New(cfg types.EngineConfig) (Analyzer, error) {
	switch cfg.Backend {
	case "", types.EngineLocal:
		return NewLocal(), nil
	case types.EngineContainer:
		if cfg.Image == "" {
			return nil, fmt.Errorf("%w: engine.image is required for the container backend", types.ErrConfig)
		}
		rt, err := container.Select(cfg.Runtime)
		if err != nil {
			return nil, err
		}
		return NewContainer(rt, cfg.Image)
	case types.EngineHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("%w: engine.endpoint is required for the http backend", types.ErrConfig)
		}
		client := &http.Client{Timeout: cfg.Timeout}
		return NewHTTP(client, cfg.Endpoint, cfg.APIKey, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine backend %q", types.ErrConfig, cfg.Backend)
	}
}

func methodArg(ocr bool) string {
	if ocr {
		return string(types.MethodOCR)
	}
	return string(types.MethodText)
}

func bboxArg(box model.BBox) string {
	return fmt.Sprintf("%g,%g,%g,%g", box[0], box[1], box[2], box[3])
}
