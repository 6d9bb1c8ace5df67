// Package source turns raw spreadsheet input into a Grid of cells.
//
// Two input shapes are understood:
//
//   - binary workbooks (xlsx, xlsm), of which only the first sheet is read
//   - delimited text (CSV, TSV, semicolon exports, Google Sheets CSV export)
//
// The caller declares which shape applies through [Mode]; the package never
// performs I/O. A source with no sheets or no non-blank rows is not an
// error: it yields an empty Grid and the caller decides how to report it.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSource is returned when input cannot be interpreted as any
// supported tabular format.
var ErrMalformedSource = errors.New("malformed source: unsupported or corrupted file")

// ErrSourceTooLarge is returned when a grid would exceed the reader's cell
// limit.
var ErrSourceTooLarge = errors.New("file too large: source exceeds cell limit")

// DefaultMaxCells bounds the cells of a single read when no limit is set.
const DefaultMaxCells = 2_000_000

// Reader parses sources under a cell limit. The zero value uses
// DefaultMaxCells. A Reader keeps no state between calls, so one value may
// be shared by concurrent imports.
type Reader struct {
	// MaxCells bounds the number of cells a single read may produce.
	// Zero or negative means DefaultMaxCells.
	MaxCells int
}

func (rd Reader) limit() int {
	if rd.MaxCells <= 0 {
		return DefaultMaxCells
	}
	return rd.MaxCells
}

// checkSize fails once the running cell count passes the limit.
func (rd Reader) checkSize(cells int) error {
	if limit := rd.limit(); cells > limit {
		return fmt.Errorf("%w (%d cells)", ErrSourceTooLarge, limit)
	}
	return nil
}

// Mode declares how raw input should be interpreted.
type Mode int

const (
	// ModeBinary treats input as a spreadsheet container.
	ModeBinary Mode = iota
	// ModeText treats input as delimited text.
	ModeText
)

func (m Mode) String() string {
	if m == ModeText {
		return "text"
	}
	return "binary"
}

// ParseMode converts "text"/"csv" and "binary"/"xlsx" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "text", "csv", "tsv":
		return ModeText, nil
	case "binary", "xlsx", "xlsm", "":
		return ModeBinary, nil
	default:
		return ModeBinary, fmt.Errorf("unknown source mode %q", s)
	}
}

// ModeForExt picks ModeText for ".csv", ".tsv" and ".txt" file extensions
// and ModeBinary for everything else.
func ModeForExt(ext string) Mode {
	switch strings.ToLower(ext) {
	case ".csv", ".tsv", ".txt":
		return ModeText
	default:
		return ModeBinary
	}
}

var (
	zipSignature = []byte("PK\x03\x04")
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Read parses data according to mode with the default cell limit.
func Read(data []byte, mode Mode) (Grid, error) {
	return Reader{}.Read(data, mode)
}

// ReadWorkbook reads a workbook with the default cell limit.
func ReadWorkbook(data []byte) (Grid, error) {
	return Reader{}.ReadWorkbook(data)
}

// ReadDelimited parses delimited text with the default cell limit.
func ReadDelimited(text string) (Grid, error) {
	return Reader{}.ReadDelimited(text)
}

// Read parses data according to mode.
//
// In binary mode, input that is not a zip container but is UTF-8 or
// BOM-marked UTF-16 text is read as delimited text; spreadsheet users
// routinely pick a .csv file in a workbook picker. Anything else, including
// legacy OLE2 workbooks (.xls, encrypted .xlsx), is malformed. The
// Windows-1252 fallback applies to declared text only, since it accepts
// any byte sequence.
func (rd Reader) Read(data []byte, mode Mode) (Grid, error) {
	if mode == ModeText {
		text, err := decodeText(data)
		if err != nil {
			return nil, err
		}
		return rd.ReadDelimited(text)
	}

	switch {
	case len(data) == 0:
		return Grid{}, nil
	case bytes.HasPrefix(data, zipSignature):
		return rd.ReadWorkbook(data)
	case bytes.HasPrefix(data, oleSignature):
		return nil, fmt.Errorf("%w: legacy or encrypted workbook", ErrMalformedSource)
	}

	text, err := decodeUnicodeText(data)
	if err != nil {
		return nil, err
	}
	return rd.ReadDelimited(text)
}
