// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the file name is the key and the trimmed file
// contents are the value.
//
// Recognised keys: s3-access-key, s3-secret-key, inference-api-key.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdfbatch/pkg/types"
)

// Key file names.
const (
	S3AccessKey     = "s3-access-key"
	S3SecretKey     = "s3-secret-key"
	InferenceAPIKey = "inference-api-key"
)

// DefaultDir is the secrets directory used when none is configured.
const DefaultDir = ".secrets"

// Load reads all files in dir and returns a map of file name to trimmed
// contents. A missing directory is not an error. Unreadable files are
// logged and skipped.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if logger != nil {
				logger.Warn("could not read secret", "name", name, "error", err)
			}
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply fills credentials in cfg that are not already set from secrets.
// Values from config files or the environment take precedence.
func Apply(cfg *types.Config, secrets map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	fill(&cfg.Storage.S3.AccessKey, S3AccessKey)
	fill(&cfg.Storage.S3.SecretKey, S3SecretKey)
	fill(&cfg.Engine.APIKey, InferenceAPIKey)
}
