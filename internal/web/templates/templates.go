// Package templates renders the HTML pages of the import UI as templ
// components. The document shell and the error alert are written in templ
// syntax (*.templ); the result pages build their markup directly.
package templates

//go:generate templ generate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/wordquiz/internal/core"
	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

// page accumulates markup and keeps the first write error.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *page) child(ctx context.Context, c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(ctx, p.w)
	}
}

// IndexPage is the import form: a file upload, a paste box and, when
// remote imports are enabled, a URL field.
func IndexPage(maxFileSize int64, remote bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<form method="post" action="/import" enctype="multipart/form-data">`)
		p.raw(`<fieldset><legend>Spreadsheet or CSV file</legend>`)
		p.raw(`<input type="file" name="file" accept=".xlsx,.xlsm,.csv,.tsv,.txt">`)
		p.printf(`<small>Up to %s.</small></fieldset>`, templ.EscapeString(formatBytes(maxFileSize)))
		p.raw(`<fieldset><legend>Or paste a table</legend>`)
		p.raw(`<textarea name="text" rows="8" cols="60" placeholder="word,translation,transliteration"></textarea></fieldset>`)
		if remote {
			p.raw(`<fieldset><legend>Or import from a link</legend>`)
			p.raw(`<input type="url" name="locator" placeholder="https://docs.google.com/spreadsheets/d/..."></fieldset>`)
		}
		p.raw(`<button type="submit">Import</button></form>`)
		return p.err
	})
}

// ImportResultPage shows the imported entries, the header decision and the
// rows that were dropped.
func ImportResultPage(res *core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<section class="summary"><p>`)
		p.printf("Imported %d entries from ", res.Stats.Entries)
		p.raw(`<strong>`)
		p.text(res.Source)
		p.raw(`</strong>`)
		p.printf(" (%s, %d rows, %d dropped).", templ.EscapeString(res.Mode), res.Stats.Rows, res.Stats.Dropped)
		p.raw(`</p><p>`)
		p.text(headerSummary(res.Header))
		p.raw(`</p></section>`)

		p.child(ctx, EntryTable(res.Entries))

		if len(res.Rejected) > 0 {
			p.printf(`<section class="rejected"><h2>Dropped rows (%d)</h2><ul>`, len(res.Rejected))
			for _, rr := range res.Rejected {
				p.printf(`<li>Row %d: `, rr.Line)
				p.text(rr.Reason)
				if len(rr.Values) > 0 {
					p.raw(` <code>`)
					p.text(strings.Join(rr.Values, " | "))
					p.raw(`</code>`)
				}
				p.raw(`</li>`)
			}
			p.raw(`</ul></section>`)
		}
		p.raw(`<p><a href="/">Import another file</a></p>`)
		return p.err
	})
}

// EntryTable renders entries as a three column table.
func EntryTable(entries []vocab.WordEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<table class="entries"><thead><tr><th>Word</th><th>Translation</th><th>Transliteration</th></tr></thead><tbody>`)
		for _, e := range entries {
			p.raw(`<tr><td>`)
			p.text(e.Unknown)
			p.raw(`</td><td>`)
			p.text(e.Translation)
			p.raw(`</td><td>`)
			p.text(e.Transliteration)
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)
		return p.err
	})
}

func headerSummary(h vocab.HeaderDecision) string {
	if !h.Present {
		return fmt.Sprintf("No header row; columns used by position (word %d, translation %d, transliteration %d).",
			h.Columns.Unknown+1, h.Columns.Translation+1, h.Columns.Transliteration+1)
	}
	return fmt.Sprintf("Header row detected (word column %d, translation column %d, transliteration column %d).",
		h.Columns.Unknown+1, h.Columns.Translation+1, h.Columns.Transliteration+1)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
