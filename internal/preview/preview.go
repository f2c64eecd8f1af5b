// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview renders a document's Markdown as a standalone HTML page.
package preview

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const page = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts markdown to an HTML document. The page title is the text
// of the first heading, or fallback when there is none.
func HTML(markdown, fallback string) ([]byte, error) {
	src := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(src))

	var body bytes.Buffer
	if err := md.Renderer().Render(&body, src, doc); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	title := firstHeading(doc, src)
	if title == "" {
		title = fallback
	}
	return fmt.Appendf(nil, page, html.EscapeString(title), body.String()), nil
}

func firstHeading(doc ast.Node, src []byte) string {
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			title = plainText(h, src)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.WriteString(plainText(c, src))
	}
	return buf.String()
}
