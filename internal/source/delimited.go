package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// numericRegex matches plain decimal numbers. strconv.ParseFloat alone
// would also accept "inf" and "nan", which are words, not numbers.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// delimiters are tried in order; the first wins a tie.
var delimiters = []rune{',', ';', '\t', '|'}

// ReadDelimited parses delimited text. The delimiter is sniffed from the
// first non-blank line. Ragged rows are kept as they are.
func (rd Reader) ReadDelimited(text string) (Grid, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: encoding error: text is not valid UTF-8", ErrMalformedSource)
	}
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.IndexByte(text, 0) >= 0 {
		return nil, fmt.Errorf("%w: binary data in text input", ErrMalformedSource)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	grid := Grid{}
	cells := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid csv: %v", ErrMalformedSource, err)
		}

		row := make(Row, len(record))
		for i, field := range record {
			row[i] = delimitedCell(field)
		}
		if row.Blank() {
			continue
		}
		cells += len(row)
		if err := rd.checkSize(cells); err != nil {
			return nil, err
		}
		grid = append(grid, row)
	}
	return grid, nil
}

func delimitedCell(field string) Cell {
	trimmed := strings.TrimSpace(field)
	if numericRegex.MatchString(trimmed) {
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NumberCell(v, field)
		}
	}
	return TextCell(field)
}

// sniffDelimiter counts candidate delimiters outside quotes on the first
// non-blank line and returns the most frequent, defaulting to comma.
func sniffDelimiter(text string) rune {
	line := firstLine(text)
	if line == "" {
		return ','
	}

	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		for _, d := range delimiters {
			if r == d {
				counts[d]++
			}
		}
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

func firstLine(text string) string {
	for len(text) > 0 {
		line := text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			text = ""
		}
		if strings.TrimSpace(line) != "" {
			return strings.TrimRight(line, "\r")
		}
	}
	return ""
}

var (
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// decodeText converts declared text to a string: UTF-16 when a BOM says so,
// UTF-8 when valid, Windows-1252 otherwise (the default of legacy Excel
// CSV exports).
func decodeText(data []byte) (string, error) {
	if hasUTF16BOM(data) {
		return decodeUTF16(data)
	}

	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("%w: binary data in text input", ErrMalformedSource)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: encoding error: %v", ErrMalformedSource, err)
	}
	return string(out), nil
}

// decodeUnicodeText accepts only BOM-marked UTF-16 or valid UTF-8, and
// rejects the result when it carries control characters or replacement
// characters. It is used when input arrived as a supposed workbook.
func decodeUnicodeText(data []byte) (string, error) {
	var text string
	switch {
	case hasUTF16BOM(data):
		out, err := decodeUTF16(data)
		if err != nil {
			return "", err
		}
		text = out
	case utf8.Valid(data):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: not a workbook or UTF-8 text", ErrMalformedSource)
	}

	if !plainText(text) {
		return "", fmt.Errorf("%w: binary data in text input", ErrMalformedSource)
	}
	return text, nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, utf16LEBOM) || bytes.HasPrefix(data, utf16BEBOM)
}

func decodeUTF16(data []byte) (string, error) {
	dec := xunicode.UTF16(xunicode.LittleEndian, xunicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: encoding error: %v", ErrMalformedSource, err)
	}
	return string(out), nil
}

// plainText reports whether text is free of C0 controls other than tab, CR
// and LF, and of U+FFFD.
func plainText(text string) bool {
	for _, r := range text {
		switch {
		case r == '\t', r == '\r', r == '\n':
		case r < 0x20, r == 0x7F, r == utf8.RuneError:
			return false
		}
	}
	return true
}
