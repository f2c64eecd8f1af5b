// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "github.com/pdiddy/pdfbatch/internal/pdftext"

const (
	// MinCharsPerPage is the average number of decoded characters per page
	// a text layer needs before it is trusted.
	MinCharsPerPage = 50

	// MaxGarbledRatio is the largest share of undecodable characters a
	// trusted text layer may contain.
	MaxGarbledRatio = 0.1
)

// Classify decides whether doc's text layer is usable as is.
func Classify(doc *pdftext.Document) ParseType {
	if doc == nil || len(doc.Pages) == 0 {
		return ParseOCR
	}
	var chars, bad int
	for _, p := range doc.Pages {
		chars += p.Chars
		bad += p.Replacement
	}
	if chars == 0 {
		return ParseOCR
	}
	valid := float64(chars-bad) / float64(len(doc.Pages))
	if valid < MinCharsPerPage || float64(bad)/float64(chars) >= MaxGarbledRatio {
		return ParseOCR
	}
	return ParseText
}
