// Package rules reads rule definitions exported from the study build and
// scaffolds blank test spreadsheets for them.
package rules

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Rule definition spreadsheet columns.
const (
	colName         = 6
	colAvailability = 8
	colExpression   = 10
	colActionType   = 13
	colMessage      = 14
)

const (
	availableStatus  = "available"
	showActionType   = "ShowAction"
	minItemTokenSize = 6
)

// Definition is a rule as exported from the study build, with the items its
// expression refers to.
type Definition struct {
	Name       string
	Message    string
	Expression string
	Items      []string
}

// ReadDefinitions returns the available, non-ShowAction rules in the rows of
// a rule definition export. The first row is the header.
func ReadDefinitions(rows [][]string) []Definition {
	var defs []Definition
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if cell(row, colActionType) == showActionType || cell(row, colAvailability) != availableStatus {
			continue
		}
		expr := cell(row, colExpression)
		defs = append(defs, Definition{
			Name:       cell(row, colName),
			Message:    strings.Join(strings.Fields(cell(row, colMessage)), " "),
			Expression: expr,
			Items:      ExpressionItems(expr),
		})
	}
	log.Debug().Int("rules", len(defs)).Msg("rule definitions read")
	return defs
}

// ExpressionItems returns the item references in a rule expression: with
// parentheses removed, the whitespace separated tokens longer than five
// characters, first occurrence only.
func ExpressionItems(expr string) []string {
	expr = strings.NewReplacer("(", "", ")", "").Replace(expr)
	seen := map[string]struct{}{}
	var items []string
	for _, tok := range strings.Fields(expr) {
		if len(tok) < minItemTokenSize {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		items = append(items, tok)
	}
	return items
}

// Header is the first row of a blank test spreadsheet.
var Header = []string{"Test ID", "Rule Name", "Rule Message", "Rule Expression", "Expected Result", "Rule Item", "Rule Item Value"}

// TestRows returns the rows of a blank test spreadsheet, header included.
// Each rule gets one row per referenced item, ids numbered <name>_01,
// <name>_02, ..., each row listing every item with an empty value cell next
// to it. The expected result is left for the test author.
func TestRows(defs []Definition) [][]string {
	rows := [][]string{append([]string(nil), Header...)}
	for _, d := range defs {
		for n := range d.Items {
			row := []string{fmt.Sprintf("%s_%02d", d.Name, n+1), d.Name, d.Message, d.Expression, ""}
			for _, item := range d.Items {
				row = append(row, item, "")
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// ColumnWidths sizes item columns to their longest item name plus six and
// value columns to twenty characters.
func ColumnWidths(defs []Definition) map[int]float64 {
	widths := map[int]float64{}
	for _, d := range defs {
		for i, item := range d.Items {
			col := 5 + 2*i
			if w := float64(len(item) + 6); w > widths[col] {
				widths[col] = w
			}
			widths[col+1] = 20
		}
	}
	return widths
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
