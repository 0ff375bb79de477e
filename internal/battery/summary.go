package battery

// PageSummary aggregates the results of one page.
type PageSummary struct {
	Page        string
	Rules       int
	Tests       int
	ValidRules  int
	PassedTests int
	FailedRules []*Rule
}

// Totals aggregates the results across all pages.
type Totals struct {
	Rules       int
	Tests       int
	ValidRules  int
	PassedTests int
}

// Summary is the per-page and overall view of a battery's results.
type Summary struct {
	Pages  []PageSummary
	Totals Totals
}

// FailedRules is the number of rules that are not valid.
func (t Totals) FailedRules() int { return t.Rules - t.ValidRules }

// FailedTests is the number of tests that did not pass.
func (t Totals) FailedTests() int { return t.Tests - t.PassedTests }

// SuccessRate is the percentage of valid rules, 0 when there are no rules.
func (t Totals) SuccessRate() float64 {
	if t.Rules == 0 {
		return 0
	}
	return float64(t.ValidRules) / float64(t.Rules) * 100
}

// Summary computes the statistics of the battery. Totals are plain sums of
// the page figures.
func (b *Battery) Summary() Summary {
	var s Summary
	for _, page := range b.Pages() {
		ps := PageSummary{Page: page}
		for _, r := range b.pages[page] {
			ps.Rules++
			ps.Tests += len(r.Tests)
			if r.IsValid() {
				ps.ValidRules++
			} else {
				ps.FailedRules = append(ps.FailedRules, r)
			}
			for _, t := range r.Tests {
				if t.Passed() {
					ps.PassedTests++
				}
			}
		}
		s.Pages = append(s.Pages, ps)
		s.Totals.Rules += ps.Rules
		s.Totals.Tests += ps.Tests
		s.Totals.ValidRules += ps.ValidRules
		s.Totals.PassedTests += ps.PassedTests
	}
	return s
}
