package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hyperifyio/ocrules/internal/battery"
)

var (
	colorGreen = lipgloss.Color("42")
	colorRed   = lipgloss.Color("196")
	colorCyan  = lipgloss.Color("51")
	colorDim   = lipgloss.Color("240")
)

var (
	summaryTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	summaryPassed = lipgloss.NewStyle().
			Foreground(colorGreen)

	summaryFailed = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// RenderSummary formats the run results for the terminal: one line per page
// followed by the totals and the failed rules.
func RenderSummary(study string, s battery.Summary) string {
	lines := []string{summaryTitle.Render("Validation of " + study)}
	for _, ps := range s.Pages {
		status := summaryPassed.Render("ok")
		if len(ps.FailedRules) > 0 {
			status = summaryFailed.Render(fmt.Sprintf("%d failed", len(ps.FailedRules)))
		}
		lines = append(lines, fmt.Sprintf("%-24s %3d rules %4d tests  %s", ps.Page, ps.Rules, ps.Tests, status))
	}
	t := s.Totals
	lines = append(lines, "",
		fmt.Sprintf("Rules: %d run, %d failed", t.Rules, t.FailedRules()),
		fmt.Sprintf("Tests: %d run, %d failed", t.Tests, t.FailedTests()),
		fmt.Sprintf("Success rate: %.1f%%", t.SuccessRate()),
	)
	for _, ps := range s.Pages {
		for _, r := range ps.FailedRules {
			lines = append(lines, summaryFailed.Render(fmt.Sprintf("FAILED %s/%s: %s", ps.Page, r.Name, strings.Join(r.FailedTests(), ", "))))
		}
	}
	return summaryBox.Render(strings.Join(lines, "\n"))
}
