// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/pdftext"
	"github.com/pdiddy/pdfbatch/internal/pdftext/pdftest"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

const recordsJSON = `[{"layout_dets":[{"category_id":15,"poly":[10,10,200,10,200,30,10,30],"score":0.93,"text":"scanned words"}],
	"page_info":{"page_no":0,"width":612,"height":792}}]`

func samplePDF() []byte {
	return pdftest.Build(pdftest.Page{
		{X: 280, Y: 770, Size: 8, S: "Confidential"},
		{X: 72, Y: 700, Size: 24, S: "Quarterly Results"},
		{X: 72, Y: 660, Size: 11, S: "Sales increased across all regions this quarter."},
		{X: 72, Y: 647, Size: 11, S: "Margins held steady despite higher costs."},
		{X: 300, Y: 20, Size: 9, S: "3"},
	})
}

func TestLocalAnalyze(t *testing.T) {
	recs, err := NewLocal().Analyze(context.Background(), samplePDF(), false)
	require.NoError(t, err)
	require.NoError(t, recs.Validate())
	require.Len(t, recs, 1)

	var cats []model.Category
	for _, d := range recs[0].LayoutDets {
		cats = append(cats, d.CategoryID)
	}
	assert.Equal(t, []model.Category{
		model.CategoryAbandon,
		model.CategoryTitle,
		model.CategoryText,
		model.CategoryAbandon,
	}, cats)
}

func TestLocalRejectsOCR(t *testing.T) {
	_, err := NewLocal().Analyze(context.Background(), samplePDF(), true)
	assert.True(t, errors.Is(err, ErrOCRUnsupported))
}

func TestLayoutPageEmpty(t *testing.T) {
	dets := LayoutPage(pdftext.Page{Width: 612, Height: 792})
	assert.NotNil(t, dets, "empty pages serialize as [] not null")
	assert.Empty(t, dets)
}

type fakeRuntime struct {
	stdout  string
	err     error
	gotArgs []string
}

func (f *fakeRuntime) Name() string    { return "docker" }
func (f *fakeRuntime) Available() bool { return true }

func (f *fakeRuntime) ImageExists(image string) error {
	if image == "missing:latest" {
		return errors.New("no such image")
	}
	return nil
}

func (f *fakeRuntime) Run(_ context.Context, _ string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.gotArgs = args
	_, _ = io.ReadAll(stdin)
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(stdout, f.stdout)
	return err
}

func TestContainerAnalyze(t *testing.T) {
	rt := &fakeRuntime{stdout: recordsJSON}
	c, err := NewContainer(rt, "pdfbatch-analyzer:latest")
	require.NoError(t, err)

	recs, err := c.Analyze(context.Background(), []byte("%PDF"), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"analyze", "--method", "ocr"}, rt.gotArgs)
	assert.Equal(t, "scanned words", recs[0].LayoutDets[0].Text)

	img, err := (&Container{runtime: &fakeRuntime{stdout: "PNGDATA"}, image: "x"}).Crop(context.Background(), nil, 2, model.BBox{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(img))
}

func TestContainerErrors(t *testing.T) {
	_, err := NewContainer(&fakeRuntime{}, "missing:latest")
	assert.Error(t, err)

	c := &Container{runtime: &fakeRuntime{stdout: ""}, image: "x"}
	_, err = c.Analyze(context.Background(), nil, false)
	assert.ErrorContains(t, err, "empty output")

	c = &Container{runtime: &fakeRuntime{stdout: "[]"}, image: "x"}
	_, err = c.Analyze(context.Background(), nil, false)
	assert.True(t, errors.Is(err, model.ErrInvalid))
}

func TestHTTPAnalyze(t *testing.T) {
	var gotMethod, gotAuth, gotType, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.URL.Query().Get("method")
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		switch r.URL.Path {
		case "/analyze":
			_, _ = io.WriteString(w, recordsJSON)
		case "/crop":
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			assert.Equal(t, "0,0,10.5,20", r.URL.Query().Get("bbox"))
			_, _ = io.WriteString(w, "JPEG")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	h := NewHTTP(ts.Client(), ts.URL+"/", "secret", 1)
	recs, err := h.Analyze(context.Background(), []byte("%PDF-1.7"), false)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, "txt", gotMethod)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "%PDF-1.7", gotBody)

	img, err := h.Crop(context.Background(), []byte("%PDF"), 1, model.BBox{0, 0, 10.5, 20})
	require.NoError(t, err)
	assert.Equal(t, "JPEG", string(img))
}

func TestHTTPErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gpu out of memory", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewHTTP(ts.Client(), ts.URL, "", 1).Analyze(context.Background(), nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "gpu out of memory")
}

func TestNew(t *testing.T) {
	a, err := New(types.EngineConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, a)

	a, err = New(types.EngineConfig{Backend: types.EngineHTTP, Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.IsType(t, &HTTP{}, a)

	for _, cfg := range []types.EngineConfig{
		{Backend: "gpu"},
		{Backend: types.EngineHTTP},
		{Backend: types.EngineContainer},
	} {
		_, err := New(cfg)
		assert.True(t, errors.Is(err, types.ErrConfig), "backend %q", cfg.Backend)
	}
}
