package vocab

import (
	"fmt"

	"github.com/JonMunkholm/wordquiz/internal/source"
)

// Columns holds the zero-based column of each role.
type Columns struct {
	Unknown         int `json:"unknown"`
	Translation     int `json:"translation"`
	Transliteration int `json:"transliteration"`
}

// DefaultColumns is the positional layout used without a header and as the
// per-role fallback when a header does not name a role.
var DefaultColumns = Columns{Unknown: 0, Translation: 1, Transliteration: 2}

// Index returns the column of role.
func (c Columns) Index(role Role) int {
	switch role {
	case RoleTranslation:
		return c.Translation
	case RoleTransliteration:
		return c.Transliteration
	default:
		return c.Unknown
	}
}

func (c *Columns) set(role Role, idx int) {
	switch role {
	case RoleTranslation:
		c.Translation = idx
	case RoleTransliteration:
		c.Transliteration = idx
	default:
		c.Unknown = idx
	}
}

// HeaderDecision is the outcome of header detection. When Present is false
// the first row is data and Columns is DefaultColumns.
type HeaderDecision struct {
	Present bool    `json:"present"`
	Columns Columns `json:"columns"`

	// Matched records which roles were found by keyword rather than by
	// positional fallback.
	Matched map[string]bool `json:"matched,omitempty"`
}

func (d HeaderDecision) String() string {
	if !d.Present {
		return "no header"
	}
	return fmt.Sprintf("header(unknown=%d, translation=%d, transliteration=%d)",
		d.Columns.Unknown, d.Columns.Translation, d.Columns.Transliteration)
}

// DetectHeader decides whether row labels columns and, if so, which column
// plays which role.
//
// The row is a header when any cell matches any role. Each role then takes
// the first cell, left to right, that matches it, or its positional default
// when none does. Roles are resolved independently, so two roles may end up
// on the same column.
//
// In strict mode the row is a header only when the unknown-word and
// translation roles are matched by two different cells.
func (n *Normalizer) DetectHeader(row source.Row) HeaderDecision {
	noHeader := HeaderDecision{Columns: DefaultColumns}
	if len(row) == 0 {
		return noHeader
	}

	first := [3]int{-1, -1, -1}
	for i, cell := range row {
		key := Fold(cell.String())
		if key == "" {
			continue
		}
		for _, role := range Roles {
			if first[role] < 0 && n.vocab.Matches(key, role) {
				first[role] = i
			}
		}
	}

	found := false
	for _, idx := range first {
		if idx >= 0 {
			found = true
		}
	}
	if !found {
		return noHeader
	}
	if n.strict {
		u, t := first[RoleUnknown], first[RoleTranslation]
		if u < 0 || t < 0 || u == t {
			return noHeader
		}
	}

	d := HeaderDecision{Present: true, Columns: DefaultColumns, Matched: make(map[string]bool, 3)}
	for _, role := range Roles {
		if first[role] >= 0 {
			d.Columns.set(role, first[role])
			d.Matched[role.String()] = true
		}
	}
	return d
}
