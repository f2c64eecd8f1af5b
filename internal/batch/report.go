// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfbatch/internal/storage"
)

// WriteReport writes s as YAML to p.
func WriteReport(ctx context.Context, rw storage.ReaderWriter, p string, s Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := rw.Write(ctx, data, p, storage.ModeText); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(ctx context.Context, rw storage.ReaderWriter, p string) (Summary, error) {
	data, err := rw.Read(ctx, p, storage.ModeText)
	if err != nil {
		return Summary{}, fmt.Errorf("reading report: %w", err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("decoding report: %w", err)
	}
	return s, nil
}
