// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout computes where a document's artifacts are written.
package layout

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/pdfbatch/internal/storage"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

// ImagesDir is the name of the image subdirectory under an artifact
// directory. It is also the relative path used in Markdown image links.
const ImagesDir = "images"

// Dirs holds the output locations of one document.
type Dirs struct {
	// Artifact is outRoot/relDir/document/method.
	Artifact string
	// Images is Artifact/images.
	Images string
	// ImagesRel is Images relative to Artifact.
	ImagesRel string
}

// Resolve returns the artifact directories for a document. The result
// depends only on its arguments.
func Resolve(outRoot, relDir, document string, method types.Method) Dirs {
	artifact := filepath.Join(outRoot, relDir, document, string(method))
	return Dirs{
		Artifact:  artifact,
		Images:    filepath.Join(artifact, ImagesDir),
		ImagesRel: ImagesDir,
	}
}

// ForJob resolves the directories of job.
func ForJob(job types.DocumentJob) Dirs {
	return Resolve(job.OutputRoot, job.RelDir, job.DocumentName, job.Method)
}

// Prepare resolves the directories of job and creates them. Calling it
// again for the same job is a no-op.
func Prepare(ctx context.Context, rw storage.ReaderWriter, job types.DocumentJob) (Dirs, error) {
	dirs := ForJob(job)
	for _, dir := range []string{dirs.Artifact, dirs.Images} {
		if err := rw.MkdirAll(ctx, dir); err != nil {
			return Dirs{}, fmt.Errorf("preparing output for %s: %w", job.DocumentName, err)
		}
	}
	return dirs, nil
}
