// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Method selects the parsing pipeline for a document.
type Method string

const (
	MethodAuto Method = "auto"
	MethodText Method = "txt"
	MethodOCR  Method = "ocr"
)

// ParseMethod normalizes a user-supplied method name. "text" is accepted as
// an alias for "txt". Unknown names return ErrUnknownMethod.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MethodAuto):
		return MethodAuto, nil
	case string(MethodText), "text":
		return MethodText, nil
	case string(MethodOCR):
		return MethodOCR, nil
	default:
		return "", fmt.Errorf("%w %q: use 'auto', 'txt' or 'ocr'", ErrUnknownMethod, s)
	}
}

// DocStatus is the outcome of processing one document in a batch.
type DocStatus string

const (
	DocConverted DocStatus = "converted"
	DocFailed    DocStatus = "failed"
	// DocSkipped marks a document that was never attempted because the run
	// was aborted by a configuration error.
	DocSkipped DocStatus = "skipped"
)

// DocumentJob describes one document to parse. It is built once per
// discovered file and not modified afterwards.
type DocumentJob struct {
	// InputPath is the path of the source PDF.
	InputPath string `json:"input_path" yaml:"input_path"`

	// RelDir is the directory of InputPath relative to the input root.
	// It is empty for files at the root and for single-file inputs.
	RelDir string `json:"rel_dir" yaml:"rel_dir"`

	// DocumentName is the file name without its extension.
	DocumentName string `json:"document_name" yaml:"document_name"`

	// Method is the parse method used for this document.
	Method Method `json:"method" yaml:"method"`

	// OutputRoot is the root of the mirrored output tree.
	OutputRoot string `json:"output_root" yaml:"output_root"`
}

// NewDocumentJob builds a job for the PDF at inputPath.
func NewDocumentJob(inputPath, relDir, outputRoot string, method Method) DocumentJob {
	base := filepath.Base(inputPath)
	return DocumentJob{
		InputPath:    inputPath,
		RelDir:       relDir,
		DocumentName: strings.TrimSuffix(base, filepath.Ext(base)),
		Method:       method,
		OutputRoot:   outputRoot,
	}
}
