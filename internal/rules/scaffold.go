package rules

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ocrules/internal/sheet"
)

// TestsSheet is the sheet name of generated blank test spreadsheets.
const TestsSheet = "Tests"

// Scaffold reads the rule definitions in rulesPath and writes a blank test
// spreadsheet for them to testsPath. It returns the definitions used.
func Scaffold(rulesPath, testsPath string) ([]Definition, error) {
	rows, err := sheet.Reader{}.Rows(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("read rule definitions: %w", err)
	}
	defs := ReadDefinitions(rows)

	widths := ColumnWidths(defs)
	cols := make([]sheet.Column, 0, len(widths))
	for i, w := range widths {
		cols = append(cols, sheet.Column{Index: i, Width: w})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Index < cols[j].Index })

	if err := sheet.Write(testsPath, TestsSheet, TestRows(defs), cols); err != nil {
		return nil, fmt.Errorf("write blank tests: %w", err)
	}
	log.Info().Str("rules", rulesPath).Str("tests", testsPath).Int("count", len(defs)).Msg("blank tests written")
	return defs, nil
}
