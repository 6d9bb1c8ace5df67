// Package vocab turns a source.Grid into vocabulary records.
//
// The grid has no schema. Whether the first row is a header, and which
// column holds the unknown word, the translation and the optional
// transliteration, is decided from multilingual header keywords compared
// on folded text (see [Fold]). Rows without both a word and a translation
// are dropped rather than reported: a partially filled spreadsheet still
// imports.
//
// A Normalizer holds no mutable state; one value serves concurrent calls.
package vocab

import (
	"strings"

	"github.com/JonMunkholm/wordquiz/internal/source"
)

// Drop reasons reported in RejectedRow.
const (
	ReasonMissingUnknown     = "missing unknown word"
	ReasonMissingTranslation = "missing translation"
	ReasonRepeatedHeader     = "repeated header row"
)

// Options configures a Normalizer.
type Options struct {
	// Vocabulary supplies the header keywords. Nil means DefaultVocabulary.
	Vocabulary *Vocabulary

	// Strict requires the unknown-word and translation roles to be matched
	// by distinct cells before a row counts as a header.
	Strict bool

	// KeepRepeatedHeaders disables dropping data rows that look like the
	// header again (two exports pasted one after the other).
	KeepRepeatedHeaders bool
}

// Normalizer maps grids to word entries.
type Normalizer struct {
	vocab        *Vocabulary
	strict       bool
	dropRepeated bool
}

// New returns a Normalizer for opts.
func New(opts Options) *Normalizer {
	v := opts.Vocabulary
	if v == nil {
		v = DefaultVocabulary()
	}
	return &Normalizer{
		vocab:        v,
		strict:       opts.Strict,
		dropRepeated: !opts.KeepRepeatedHeaders,
	}
}

var defaultNormalizer = New(Options{})

// Normalize maps grid with the default options and returns its entries.
func Normalize(grid source.Grid) []WordEntry {
	return defaultNormalizer.Normalize(grid).Entries
}

// Stats counts what happened to the grid's rows.
type Stats struct {
	Rows            int `json:"rows"`
	DataRows        int `json:"dataRows"`
	Entries         int `json:"entries"`
	Dropped         int `json:"dropped"`
	RepeatedHeaders int `json:"repeatedHeaders"`
}

// RejectedRow describes a data row that produced no entry.
type RejectedRow struct {
	Line   int      `json:"line"` // 1-based position in the grid
	Reason string   `json:"reason"`
	Values []string `json:"values"`
}

// Result is the outcome of normalizing one grid.
type Result struct {
	Header   HeaderDecision `json:"header"`
	Entries  []WordEntry    `json:"entries"`
	Rejected []RejectedRow  `json:"rejected,omitempty"`
	Stats    Stats          `json:"stats"`
}

// Normalize decides the header, then maps every remaining row to an entry
// in grid order. The grid is not modified.
func (n *Normalizer) Normalize(grid source.Grid) Result {
	res := Result{
		Header:  HeaderDecision{Columns: DefaultColumns},
		Entries: []WordEntry{},
	}
	res.Stats.Rows = len(grid)
	if len(grid) == 0 {
		return res
	}

	res.Header = n.DetectHeader(grid[0])
	cols := res.Header.Columns
	data, offset := grid, 0
	if res.Header.Present {
		data, offset = grid[1:], 1
	}
	res.Stats.DataRows = len(data)

	for i, row := range data {
		entry, reason := n.mapRow(row, cols)
		if reason != "" {
			res.Rejected = append(res.Rejected, RejectedRow{
				Line:   offset + i + 1,
				Reason: reason,
				Values: row.Strings(),
			})
			if reason == ReasonRepeatedHeader {
				res.Stats.RepeatedHeaders++
			}
			continue
		}
		res.Entries = append(res.Entries, entry)
	}

	res.Stats.Entries = len(res.Entries)
	res.Stats.Dropped = len(res.Rejected)
	return res
}

// mapRow returns the entry for row, or the reason it was dropped.
func (n *Normalizer) mapRow(row source.Row, cols Columns) (WordEntry, string) {
	unknown := strings.TrimSpace(row.Text(cols.Unknown))
	translation := strings.TrimSpace(row.Text(cols.Translation))

	switch {
	case unknown == "":
		return WordEntry{}, ReasonMissingUnknown
	case translation == "":
		return WordEntry{}, ReasonMissingTranslation
	}

	if n.dropRepeated &&
		n.vocab.Matches(Fold(unknown), RoleUnknown) &&
		n.vocab.Matches(Fold(translation), RoleTranslation) {
		return WordEntry{}, ReasonRepeatedHeader
	}

	return WordEntry{
		Unknown:         unknown,
		Translation:     translation,
		Transliteration: strings.TrimSpace(row.Text(cols.Transliteration)),
	}, ""
}
