package battery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ocrules/internal/extract"
)

// Align is the horizontal alignment of a heading.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Document accumulates block-level report content and renders it on Save.
type Document interface {
	Heading(text string, size float64, align Align)
	Paragraph(text string)
	Spacer(mm float64)
	HorizontalLine()
	PageBreak()
	Image(path string)
	Save() error
}

// NewDocument creates a document that Save writes to path.
type NewDocument func(path string) Document

// ReportOptions carries the run details printed in reports.
type ReportOptions struct {
	Study string
	Date  time.Time
}

// OverviewFile is the file name of the battery-wide report.
const OverviewFile = "validation_overview.pdf"

// CreateReports writes the overview report into dir and one report per rule
// into a sub directory per page. Existing directories are reused.
func (b *Battery) CreateReports(dir string, newDoc NewDocument, opts ReportOptions) error {
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	overview := newDoc(filepath.Join(dir, OverviewFile))
	b.WriteOverview(overview, opts)
	if err := overview.Save(); err != nil {
		return fmt.Errorf("write overview: %w", err)
	}
	for _, page := range b.Pages() {
		pageDir := filepath.Join(dir, page)
		if err := os.MkdirAll(pageDir, 0o755); err != nil {
			return fmt.Errorf("create page report dir: %w", err)
		}
		seen := map[string]int{}
		for _, r := range b.pages[page] {
			seen[r.Name]++
			path := filepath.Join(pageDir, r.ReportFileName(seen[r.Name]))
			doc := newDoc(path)
			r.WriteReport(doc, opts.Date)
			if err := doc.Save(); err != nil {
				return fmt.Errorf("write report for rule %s: %w", r.Name, err)
			}
		}
		log.Debug().Str("page", page).Str("dir", pageDir).Msg("rule reports written")
	}
	return nil
}

// ReportFileName names the rule's report. Invalid rules get an INVALID_
// prefix; occurrence > 1 distinguishes rules sharing a name on one page.
func (r *Rule) ReportFileName(occurrence int) string {
	name := safeFileName(r.Name)
	if occurrence > 1 {
		name = fmt.Sprintf("%s_%d", name, occurrence)
	}
	if !r.IsValid() {
		name = "INVALID_" + name
	}
	return name + ".pdf"
}

func safeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

// WriteOverview renders the battery-wide summary.
func (b *Battery) WriteOverview(doc Document, opts ReportOptions) {
	s := b.Summary()
	doc.Heading(opts.Study, 18, AlignCenter)
	doc.Spacer(2.5)
	doc.Heading("Rules Validation Overview", 16, AlignCenter)
	doc.Spacer(2.5)
	doc.HorizontalLine()
	doc.Spacer(5)
	doc.Paragraph("Test date: " + opts.Date.Format("02-01-2006"))
	doc.Spacer(4)
	if s.Totals.Rules == 0 {
		doc.Paragraph("Success rate: 0%")
	} else {
		doc.Paragraph(fmt.Sprintf("Success rate: %.1f%%", s.Totals.SuccessRate()))
	}
	doc.Spacer(4)
	doc.Paragraph(fmt.Sprintf("Rules run: %d", s.Totals.Rules))
	doc.Paragraph(fmt.Sprintf("Rules failed: %d", s.Totals.FailedRules()))
	doc.Spacer(4)
	doc.Paragraph(fmt.Sprintf("Tests run: %d", s.Totals.Tests))
	doc.Paragraph(fmt.Sprintf("Tests failed: %d", s.Totals.FailedTests()))
	if s.Totals.FailedTests() == 0 {
		return
	}
	doc.PageBreak()
	doc.Heading(opts.Study, 14, AlignCenter)
	doc.Heading("Overview failed tests", 12, AlignCenter)
	doc.Spacer(2.5)
	doc.HorizontalLine()
	doc.Spacer(2.5)
	for _, ps := range s.Pages {
		if len(ps.FailedRules) == 0 {
			continue
		}
		doc.Paragraph(ps.Page + ":")
		for _, r := range ps.FailedRules {
			doc.Paragraph(strings.Join(r.FailedTests(), ", "))
		}
		doc.Spacer(4)
	}
}

// SuccessRate is the percentage of passed tests, 0 for a rule without tests.
func (r *Rule) SuccessRate() float64 {
	if len(r.Tests) == 0 {
		return 0
	}
	return float64(len(r.Tests)-r.FailedCount()) / float64(len(r.Tests)) * 100
}

// WriteReport renders the rule's validation report. It only reads the rule.
func (r *Rule) WriteReport(doc Document, date time.Time) {
	doc.Heading("Validation Report - "+r.Name, 18, AlignCenter)
	doc.Spacer(6)
	doc.HorizontalLine()
	doc.Spacer(5)
	doc.Paragraph("Description:")
	doc.Paragraph(extract.PlainText(r.Description))
	doc.Spacer(4)
	doc.Paragraph("Validation date: " + date.Format("2006-01-02"))
	if r.IsValid() {
		doc.Paragraph(fmt.Sprintf("This rule is valid, all %d checks passed.", len(r.Tests)))
	} else {
		doc.Paragraph(fmt.Sprintf("Number of tests: %d", len(r.Tests)))
		doc.Paragraph(fmt.Sprintf("Number of failed tests: %d", r.FailedCount()))
		doc.Paragraph(fmt.Sprintf("Success rate: %d %%", int(r.SuccessRate())))
		doc.Spacer(2.5)
		doc.Heading("This rule is NOT valid", 14, AlignLeft)
	}
	for _, t := range r.Tests {
		result := "FAILED"
		if t.Passed() {
			result = "Passed"
		}
		doc.PageBreak()
		doc.Heading(fmt.Sprintf("Rule: %s - Test: %s - %s", r.Name, t.ID, result), 12, AlignLeft)
		doc.Spacer(2.5)
		doc.HorizontalLine()
		doc.Spacer(2.5)
		doc.Paragraph("Test values used:")
		for _, in := range t.Inputs {
			v := in.Value
			if v == "" {
				v = "< empty >"
			}
			doc.Paragraph("     Item: " + in.Name)
			doc.Paragraph("          Value: " + v)
		}
		doc.Paragraph("Expected result: " + t.ExpectedLabel())
		doc.Paragraph("Actual result: " + t.Observed.Label())
		doc.Spacer(6)
		if t.Evidence != "" && fileExists(t.Evidence) {
			doc.Image(t.Evidence)
		} else {
			doc.Paragraph("No screenshot available")
		}
	}
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
