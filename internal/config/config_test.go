// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfbatch/pkg/types"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, types.MethodAuto, cfg.Parse.Method)
	assert.True(t, cfg.Parse.InsideModel)
	assert.Equal(t, "none", cfg.Parse.DropMode)
	assert.Equal(t, "mm_md", cfg.Parse.MakeMode)
	assert.True(t, cfg.Parse.DumpMarkdown)
	assert.True(t, cfg.Parse.DumpModelJSON)
	assert.True(t, cfg.Parse.DrawLayoutBBox)
	assert.False(t, cfg.Parse.DumpHTML)
	assert.Equal(t, types.EngineLocal, cfg.Engine.Backend)
	assert.Equal(t, 5, cfg.Engine.MaxRetries)
	assert.Equal(t, types.StorageDisk, cfg.Storage.Backend)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfbatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`parse:
  method: text
  inside_model: false
  dump_html: true
engine:
  backend: http
  endpoint: http://models:8080
  timeout: 90s
storage:
  backend: s3
  s3:
    bucket: artifacts
    prefix: runs
batch:
  workers: 4
`), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, types.MethodText, cfg.Parse.Method, "text is an alias of txt")
	assert.False(t, cfg.Parse.InsideModel)
	assert.True(t, cfg.Parse.DumpHTML)
	assert.True(t, cfg.Parse.DumpMarkdown, "unset keys keep defaults")
	assert.Equal(t, types.EngineHTTP, cfg.Engine.Backend)
	assert.Equal(t, "http://models:8080", cfg.Engine.Endpoint)
	assert.Equal(t, 90*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, types.StorageS3, cfg.Storage.Backend)
	assert.Equal(t, "artifacts", cfg.Storage.S3.Bucket)
	assert.Equal(t, "runs", cfg.Storage.S3.Prefix)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PDFBATCH_PARSE_METHOD", "ocr")
	t.Setenv("PDFBATCH_BATCH_WORKERS", "3")
	t.Setenv("PDFBATCH_STORAGE_S3_REGION", "eu-west-1")

	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, types.MethodOCR, cfg.Parse.Method)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"parse.drop_mode", "most"},
		{"parse.make_mode", "docx"},
		{"engine.backend", "gpu"},
		{"engine.max_retries", -1},
		{"engine.runtime", "lxc"},
		{"storage.backend", "ftp"},
		{"batch.workers", 0},
		{"log.level", "chatty"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			v := newViper()
			v.Set(tc.key, tc.value)
			_, err := Load(v)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrConfig), err)
		})
	}
}

func TestLoadUnknownMethod(t *testing.T) {
	v := newViper()
	v.Set("parse.method", "vision")
	_, err := Load(v)
	assert.True(t, errors.Is(err, types.ErrUnknownMethod))
	assert.True(t, errors.Is(err, types.ErrConfig))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(types.LogConfig{Level: "warn"}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "path", "/in/a.pdf")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown path=/in/a.pdf")
}
