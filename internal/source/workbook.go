package source

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook reads the first sheet, in workbook order, of an xlsx/xlsm
// container. Cells the sheet stores as numbers become number cells carrying
// both the value and the text the sheet displays; everything else is text.
func (rd Reader) ReadWorkbook(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrMalformedSource, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Grid{}, nil
	}
	sheet := sheets[0]

	printed, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformedSource, sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformedSource, sheet, err)
	}

	grid := make(Grid, 0, len(printed))
	cells := 0
	for r, values := range printed {
		row := make(Row, len(values))
		for c, v := range values {
			row[c] = workbookCell(f, sheet, r, c, v, rawValue(raw, r, c))
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

// workbookCell classifies one cell. Excel omits the type attribute on plain
// numeric cells, so an unset type with a numeric raw value is a number too.
func workbookCell(f *excelize.File, sheet string, r, c int, printed, raw string) Cell {
	if strings.TrimSpace(printed) == "" {
		return TextCell(printed)
	}

	ref, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return TextCell(printed)
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return TextCell(printed)
	}

	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return NumberCell(v, printed)
		}
	}
	return TextCell(printed)
}

func rawValue(raw [][]string, r, c int) string {
	if r >= len(raw) || c >= len(raw[r]) {
		return ""
	}
	return raw[r][c]
}
