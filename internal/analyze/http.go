// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pdfbatch/internal/httputil"
	"github.com/pdiddy/pdfbatch/internal/model"
)

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 512

// HTTP calls an inference service:
//
//	POST {endpoint}/analyze?method=txt|ocr        -> model records JSON
//	POST {endpoint}/crop?page=N&bbox=x0,y0,x1,y1  -> image bytes
//
// The PDF is the request body in both cases.
type HTTP struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	maxRetries int
}

// NewHTTP returns a client for the service at endpoint. apiKey may be empty.
func NewHTTP(client *http.Client, endpoint, apiKey string, maxRetries int) *HTTP {
	return &HTTP{
		client:     client,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     apiKey,
		maxRetries: maxRetries,
	}
}

func (h *HTTP) Analyze(ctx context.Context, pdf []byte, ocr bool) (model.Records, error) {
	q := url.Values{"method": {methodArg(ocr)}}
	body, err := h.post(ctx, "analyze", q, pdf)
	if err != nil {
		return nil, fmt.Errorf("http analyzer: %w", err)
	}
	recs, err := model.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("http analyzer response: %w", err)
	}
	return recs, nil
}

func (h *HTTP) Crop(ctx context.Context, pdf []byte, page int, box model.BBox) ([]byte, error) {
	q := url.Values{"page": {strconv.Itoa(page)}, "bbox": {bboxArg(box)}}
	body, err := h.post(ctx, "crop", q, pdf)
	if err != nil {
		return nil, fmt.Errorf("http crop: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("http crop of page %d returned no image", page)
	}
	return body, nil
}

func (h *HTTP) post(ctx context.Context, op string, q url.Values, pdf []byte) ([]byte, error) {
	u := fmt.Sprintf("%s/%s?%s", h.endpoint, op, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(pdf))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, h.client, req, h.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, u, snippet)
	}
	return data, nil
}
