// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    Method
		wantErr bool
	}{
		{"auto", MethodAuto, false},
		{"", MethodAuto, false},
		{"txt", MethodText, false},
		{"text", MethodText, false},
		{"OCR", MethodOCR, false},
		{" ocr ", MethodOCR, false},
		{"vision", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownMethod))
				assert.True(t, errors.Is(err, ErrConfig), "unknown method must abort the run")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNeedModelListIsConfigError(t *testing.T) {
	assert.True(t, errors.Is(ErrNeedModelList, ErrConfig))
	assert.False(t, errors.Is(errors.New("disk full"), ErrConfig))
}

func TestNewDocumentJob(t *testing.T) {
	job := NewDocumentJob("/in/a/report.v2.pdf", "a", "/out", MethodAuto)
	assert.Equal(t, "report.v2", job.DocumentName)
	assert.Equal(t, "a", job.RelDir)
	assert.Equal(t, "/out", job.OutputRoot)
	assert.Equal(t, MethodAuto, job.Method)
}
