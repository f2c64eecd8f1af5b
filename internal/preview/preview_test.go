// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTML(t *testing.T) {
	out, err := HTML("# Field *Notes*\n\nSome text.\n\n![](images/a.png)\n", "report")
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<title>Field Notes</title>")
	assert.Contains(t, s, "<h1>Field <em>Notes</em></h1>")
	assert.Contains(t, s, "<p>Some text.</p>")
	assert.Contains(t, s, `<img src="images/a.png" alt="">`)
}

func TestHTMLFallbackTitle(t *testing.T) {
	out, err := HTML("no heading <here>\n", "a&b")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>a&amp;b</title>")
}

func TestHTMLEmpty(t *testing.T) {
	out, err := HTML("", "empty")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<body>\n</body>")
}
