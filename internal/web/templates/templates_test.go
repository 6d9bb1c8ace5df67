package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/wordquiz/internal/core"
	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLayoutEscapesTitle(t *testing.T) {
	out := render(t, Layout("<Quiz>", ErrorAlert("boom", "", "")))
	assert.Contains(t, out, "<title>&lt;Quiz&gt;</title>")
	assert.Contains(t, out, "<h1>&lt;Quiz&gt;</h1>")
	assert.Contains(t, out, `<main><h1>&lt;Quiz&gt;</h1><div class="alert alert-error"`)
	assert.True(t, strings.HasSuffix(out, "</main></body></html>"))
}

func TestLayoutStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Layout("Quiz", ErrorAlert("boom", "", "")).Render(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestIndexPage(t *testing.T) {
	out := render(t, IndexPage(20<<20, false))
	assert.Contains(t, out, `action="/import"`)
	assert.Contains(t, out, "Up to 20.0 MB.")
	assert.NotContains(t, out, `name="locator"`)

	assert.Contains(t, render(t, IndexPage(512, true)), `name="locator"`)
}

func TestImportResultPage(t *testing.T) {
	res := &core.ImportResult{
		Source: "lesson<1>.csv",
		Mode:   "text",
		Header: vocab.HeaderDecision{Present: true, Columns: vocab.DefaultColumns},
		Entries: []vocab.WordEntry{
			{Unknown: "привет", Translation: "hello", Transliteration: "privet"},
		},
		Rejected: []vocab.RejectedRow{
			{Line: 3, Reason: vocab.ReasonMissingTranslation, Values: []string{"cane", ""}},
		},
		Stats: vocab.Stats{Rows: 3, Entries: 1, Dropped: 1},
	}
	out := render(t, ImportResultPage(res))
	assert.Contains(t, out, "Imported 1 entries from <strong>lesson&lt;1&gt;.csv</strong>")
	assert.Contains(t, out, "<td>привет</td><td>hello</td><td>privet</td>")
	assert.Contains(t, out, "Dropped rows (1)")
	assert.Contains(t, out, "Row 3: missing translation")
	assert.Contains(t, out, "Header row detected")
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("File too large", "Split it.", "FILE001"))
	assert.Contains(t, out, "File too large")
	assert.Contains(t, out, `<span class="code">FILE001</span>`)
	assert.Contains(t, out, "<p>Split it.</p>")

	out = render(t, ErrorAlert("<bad> input", "", ""))
	assert.Contains(t, out, "<strong>&lt;bad&gt; input</strong>")
	assert.NotContains(t, out, `class="code"`)
	assert.Equal(t, 1, strings.Count(out, "<p>"), "no action paragraph")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "20.0 MB", formatBytes(20<<20))
}
