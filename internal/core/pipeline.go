package core

import (
	"github.com/JonMunkholm/wordquiz/internal/source"
	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

// ParseFromBytes parses a workbook (or delimited text uploaded as a file)
// into word entries using the default header vocabulary.
//
// A readable source with no usable rows yields an empty, non-nil slice and
// a nil error. The only error is a wrapped source.ErrMalformedSource (or
// source.ErrSourceTooLarge).
func ParseFromBytes(data []byte) ([]vocab.WordEntry, error) {
	grid, err := source.Read(data, source.ModeBinary)
	if err != nil {
		return nil, err
	}
	return vocab.Normalize(grid), nil
}

// ParseFromText parses delimited text (CSV, TSV, a Google Sheets export)
// into word entries using the default header vocabulary.
func ParseFromText(text string) ([]vocab.WordEntry, error) {
	grid, err := source.ReadDelimited(text)
	if err != nil {
		return nil, err
	}
	return vocab.Normalize(grid), nil
}
