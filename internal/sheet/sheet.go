// Package sheet reads and writes the spreadsheets exchanged with test
// authors.
package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Reader reads the first worksheet of an xlsx workbook.
type Reader struct{}

// Rows returns all rows of the first worksheet as displayed strings, NFC
// normalized. Trailing empty cells are not included.
func (Reader) Rows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	for _, row := range rows {
		for i, c := range row {
			row[i] = norm.NFC.String(c)
		}
	}
	return rows, nil
}

// Column is a width hint in characters for one column.
type Column struct {
	Index int // 0-based
	Width float64
}

// Write saves rows into a new workbook at path with a single sheet of the
// given name. The first row is written as the header.
func Write(path, sheetName string, rows [][]string, widths []Column) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheetName, cell, v); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}
	for _, w := range widths {
		col, err := excelize.ColumnNumberToName(w.Index + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, col, col, w.Width); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
