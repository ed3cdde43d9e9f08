package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/donation-receipts/internal/types"
)

// XLSXSource reads rows from a local workbook export of the donor sheet.
// The first row of the sheet holds the field names.
type XLSXSource struct {
	Path  string
	Sheet string // defaults to the first sheet
}

// NewXLSXSource creates an XLSXSource.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{Path: path, Sheet: sheet}
}

// Fetch reads the workbook. Blank rows are skipped; a row shorter than the
// header gets empty values for the missing cells.
func (s *XLSXSource) Fetch(_ context.Context) (*types.Table, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, &types.ParseError{Message: fmt.Sprintf("failed to open workbook %s", s.Path), Cause: err}
	}
	defer func() { _ = f.Close() }()

	sheet := s.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &types.ParseError{Message: fmt.Sprintf("failed to read sheet %q", sheet), Cause: err}
	}

	table := &types.Table{}
	if len(rows) == 0 {
		return table, nil
	}

	var header []string
	for _, cell := range rows[0] {
		header = append(header, strings.TrimSpace(cell))
	}
	for _, name := range header {
		if name != "" {
			table.Columns = append(table.Columns, name)
		}
	}

	for _, cells := range rows[1:] {
		if isBlank(cells) {
			continue
		}
		row := make(types.Row, len(table.Columns))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
