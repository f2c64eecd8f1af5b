// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage reads and writes parse artifacts. Backends address
// content by slash or OS paths; a missing object is reported as an error
// wrapping fs.ErrNotExist.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"unicode/utf8"

	"github.com/pdiddy/pdfbatch/pkg/types"
)

// Mode selects how content is treated on write and read.
type Mode int

const (
	// ModeText requires valid UTF-8 content.
	ModeText Mode = iota
	// ModeBinary stores bytes verbatim.
	ModeBinary
)

func (m Mode) String() string {
	if m == ModeBinary {
		return "binary"
	}
	return "text"
}

// ErrInvalidText is returned when text-mode content is not valid UTF-8.
var ErrInvalidText = errors.New("content is not valid UTF-8")

// ReaderWriter is the storage abstraction used by the parse driver.
type ReaderWriter interface {
	// Read returns the content stored at p.
	Read(ctx context.Context, p string, mode Mode) ([]byte, error)

	// Write stores content at p, creating parent directories as needed.
	Write(ctx context.Context, content []byte, p string, mode Mode) error

	// Exists reports whether content is stored at p.
	Exists(ctx context.Context, p string) (bool, error)

	// MkdirAll ensures the directory p exists. Backends without
	// directories treat it as a no-op.
	MkdirAll(ctx context.Context, p string) error
}

// Open returns the backend named by cfg.
func Open(ctx context.Context, cfg types.StorageConfig) (ReaderWriter, error) {
	switch cfg.Backend {
	case "", types.StorageDisk:
		return NewDisk(), nil
	case types.StorageS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", types.ErrConfig, cfg.Backend)
	}
}

func checkText(content []byte, mode Mode) error {
	if mode == ModeText && !utf8.Valid(content) {
		return ErrInvalidText
	}
	return nil
}

// IsNotExist reports whether err means the requested object is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// sub is a ReaderWriter view whose relative paths resolve under dir.
type sub struct {
	rw  ReaderWriter
	dir string
}

// Sub returns a view of rw rooted at dir. Absolute paths passed to the view
// are used unchanged.
func Sub(rw ReaderWriter, dir string) ReaderWriter {
	return &sub{rw: rw, dir: dir}
}

func (s *sub) join(p string) string {
	if filepath.IsAbs(p) || path.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}

func (s *sub) Read(ctx context.Context, p string, mode Mode) ([]byte, error) {
	return s.rw.Read(ctx, s.join(p), mode)
}

func (s *sub) Write(ctx context.Context, content []byte, p string, mode Mode) error {
	return s.rw.Write(ctx, content, s.join(p), mode)
}

func (s *sub) Exists(ctx context.Context, p string) (bool, error) {
	return s.rw.Exists(ctx, s.join(p))
}

func (s *sub) MkdirAll(ctx context.Context, p string) error {
	return s.rw.MkdirAll(ctx, s.join(p))
}

// EncodeJSON encodes v the way every JSON artifact is written: four-space
// indentation and unescaped non-ASCII and HTML characters.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
