// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache reuses model records persisted by an earlier run so model
// inference is not repeated.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pdiddy/pdfbatch/internal/model"
	"github.com/pdiddy/pdfbatch/internal/storage"
)

// FileName is the model artifact file inside an artifact directory.
const FileName = "model.json"

// State is the outcome of a cache lookup.
type State string

const (
	Hit     State = "hit"
	Miss    State = "miss"
	Invalid State = "invalid"
)

// Result is what Lookup found.
type Result struct {
	State   State
	Records model.Records
	// Err explains an Invalid result.
	Err error
}

// Path returns the model.json path for an artifact directory.
func Path(artifactDir string) string {
	return filepath.Join(artifactDir, FileName)
}

// Lookup loads model.json from artifactDir. Missing, unreadable, garbled or
// wrongly shaped content yields empty Records, so callers fall back to
// inference; only Hit carries records.
func Lookup(ctx context.Context, rw storage.ReaderWriter, artifactDir string, logger *slog.Logger) Result {
	p := Path(artifactDir)
	ok, err := rw.Exists(ctx, p)
	if err != nil {
		logger.Warn("model cache unreadable, re-running inference", "path", p, "error", err)
		return Result{State: Invalid, Err: err}
	}
	if !ok {
		return Result{State: Miss}
	}
	data, err := rw.Read(ctx, p, storage.ModeText)
	if err != nil {
		if storage.IsNotExist(err) {
			return Result{State: Miss}
		}
		logger.Warn("model cache unreadable, re-running inference", "path", p, "error", err)
		return Result{State: Invalid, Err: err}
	}

	recs, err := model.Decode(data)
	if err != nil {
		logger.Warn("model cache invalid, re-running inference", "path", p, "error", err)
		return Result{State: Invalid, Err: err}
	}
	logger.Debug("model cache hit", "path", p, "pages", len(recs))
	return Result{State: Hit, Records: recs}
}

// Store writes recs to artifactDir/model.json.
func Store(ctx context.Context, rw storage.ReaderWriter, artifactDir string, recs model.Records) error {
	data, err := storage.EncodeJSON(recs)
	if err != nil {
		return err
	}
	if err := rw.Write(ctx, data, Path(artifactDir), storage.ModeText); err != nil {
		return fmt.Errorf("writing model cache: %w", err)
	}
	return nil
}
