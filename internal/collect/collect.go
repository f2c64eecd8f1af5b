// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect enumerates the PDF files of a batch and the output
// subdirectory each one mirrors.
package collect

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const pdfExt = ".pdf"

// Target is one discovered PDF.
type Target struct {
	// Path is the absolute path of the PDF.
	Path string
	// RelDir is the PDF's directory relative to the input root, or empty
	// for files at the root and for single-file inputs.
	RelDir string
}

// Collect returns the PDFs under inputPath in discovery order. A directory
// is walked recursively and every file with a .pdf extension (any case) is
// returned; any other path yields a single target with an empty RelDir.
// An empty directory is not an error.
func Collect(inputPath string) ([]Target, error) {
	root, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", inputPath, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", inputPath, err)
	}
	if !info.IsDir() {
		return []Target{{Path: root}}, nil
	}

	var targets []Target
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsPDF(p) {
			return nil
		}
		rel, err := RelDir(root, p)
		if err != nil {
			return err
		}
		targets = append(targets, Target{Path: p, RelDir: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", inputPath, err)
	}
	return targets, nil
}

// IsPDF reports whether p has a PDF file extension.
func IsPDF(p string) bool {
	return strings.EqualFold(filepath.Ext(p), pdfExt)
}

// RelDir returns the directory of file relative to root, mapping the root
// itself to the empty string.
func RelDir(root, file string) (string, error) {
	rel, err := filepath.Rel(root, filepath.Dir(file))
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", file, err)
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}
