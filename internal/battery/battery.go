// Package battery models a study's rule test battery: the rules defined per
// test spreadsheet, the test cases of each rule, their outcomes once run, and
// the statistics and reports derived from them.
package battery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Test spreadsheet columns.
const (
	colTestID      = 0
	colRuleName    = 1
	colDescription = 2
	colExpected    = 4
	colFirstItem   = 5
)

// DefaultExt is the spreadsheet extension used to discover pages.
const DefaultExt = ".xlsx"

// RowReader returns the rows of the first sheet of a spreadsheet, header
// included.
type RowReader interface {
	Rows(path string) ([][]string, error)
}

// LoadOptions controls which spreadsheets make up a battery.
type LoadOptions struct {
	// Dir holds the test spreadsheets.
	Dir string
	// Scripts optionally names the spreadsheets (base names) to load. They
	// are loaded in sorted order regardless of the order given.
	Scripts []string
	// Ext is the spreadsheet extension, matched case-insensitively.
	// Defaults to DefaultExt.
	Ext    string
	Reader RowReader
}

// RowError reports a test spreadsheet row that cannot be turned into a test.
type RowError struct {
	Page   string
	Row    int // 1-based, as shown by spreadsheet applications
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("page %s row %d: %s", e.Page, e.Row, e.Reason)
}

// Battery holds all rules of a study keyed by page, a page being one test
// spreadsheet.
type Battery struct {
	pages map[string][]*Rule
}

// New returns an empty battery.
func New() *Battery {
	return &Battery{pages: map[string][]*Rule{}}
}

// Load resolves the pages described by opts and parses each spreadsheet into
// rules. Any unreadable spreadsheet or malformed row aborts the load.
func Load(opts LoadOptions) (*Battery, error) {
	if opts.Reader == nil {
		return nil, errors.New("battery: no row reader")
	}
	ext := opts.Ext
	if ext == "" {
		ext = DefaultExt
	}
	pages, err := resolvePages(opts.Dir, opts.Scripts, ext)
	if err != nil {
		return nil, err
	}
	b := New()
	for _, pf := range pages {
		rows, err := opts.Reader.Rows(pf.path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", pf.path, err)
		}
		rules, err := ParseRows(pf.page, rows)
		if err != nil {
			return nil, err
		}
		b.SetPage(pf.page, rules)
		log.Debug().Str("page", pf.page).Int("rules", len(rules)).Msg("page loaded")
	}
	return b, nil
}

type pageFile struct {
	page string
	path string
}

// resolvePages returns the pages sorted by name, either from scripts or from
// the spreadsheets found in dir.
func resolvePages(dir string, scripts []string, ext string) ([]pageFile, error) {
	var pages []pageFile
	if len(scripts) > 0 {
		for _, s := range scripts {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			name := s
			if strings.EqualFold(filepath.Ext(s), ext) {
				s = strings.TrimSuffix(s, filepath.Ext(s))
			} else {
				name = s + ext
			}
			pages = append(pages, pageFile{page: s, path: filepath.Join(dir, name)})
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read test scripts dir: %w", err)
		}
		for _, e := range entries {
			name := e.Name()
			// "~$" files are office lock files
			if e.IsDir() || strings.HasPrefix(name, "~$") {
				continue
			}
			if strings.EqualFold(filepath.Ext(name), ext) {
				pages = append(pages, pageFile{page: strings.TrimSuffix(name, filepath.Ext(name)), path: filepath.Join(dir, name)})
			}
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].page < pages[j].page })
	return pages, nil
}

// ParseRows turns the rows of one test spreadsheet into rules. The first row
// is the header. Consecutive rows with the same rule name belong to one rule;
// a name that comes back after another rule starts a new rule.
func ParseRows(page string, rows [][]string) ([]*Rule, error) {
	var (
		rules   []*Rule
		current *Rule
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		id := cell(row, colTestID)
		name := cell(row, colRuleName)
		if id == "" {
			return nil, &RowError{Page: page, Row: i + 1, Reason: "missing test id"}
		}
		if name == "" {
			return nil, &RowError{Page: page, Row: i + 1, Reason: "missing rule name"}
		}
		if current == nil || current.Name != name {
			current = NewRule(name, cell(row, colDescription))
			rules = append(rules, current)
		}
		expected := cell(row, colExpected)
		if expected == "" {
			log.Warn().Str("page", page).Str("test", id).Msg("test has no expected result; it will fail")
		}
		current.AddTest(NewTestCase(id, name, expected, rowInputs(row)))
	}
	return rules, nil
}

// rowInputs reads (item, value) pairs from colFirstItem onwards, stopping at
// the first empty item name.
func rowInputs(row []string) []Input {
	var inputs []Input
	for c := colFirstItem; c < len(row); c += 2 {
		key := strings.TrimSpace(row[c])
		if key == "" {
			break
		}
		val := ""
		if c+1 < len(row) {
			val = row[c+1]
		}
		inputs = append(inputs, Input{Name: key, Value: val})
	}
	return inputs
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SetPage replaces the rules of a page.
func (b *Battery) SetPage(page string, rules []*Rule) {
	b.pages[page] = rules
}

// Pages returns the page names in sorted order.
func (b *Battery) Pages() []string {
	pages := make([]string, 0, len(b.pages))
	for p := range b.pages {
		pages = append(pages, p)
	}
	sort.Strings(pages)
	return pages
}

// Rules returns the rules of a page in spreadsheet order.
func (b *Battery) Rules(page string) []*Rule {
	return b.pages[page]
}

// Validate runs every rule of every page through d, pages in sorted order.
// It only stops early when ctx is done.
func (b *Battery) Validate(ctx context.Context, d Driver) error {
	for _, page := range b.Pages() {
		log.Info().Str("page", page).Int("rules", len(b.pages[page])).Msg("validating page")
		for _, r := range b.pages[page] {
			if err := r.Validate(ctx, d); err != nil {
				return err
			}
		}
	}
	return nil
}
