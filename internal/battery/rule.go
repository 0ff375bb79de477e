package battery

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Rule is a named rule with the ordered tests that exercise it.
type Rule struct {
	Name        string
	Description string
	Tests       []*TestCase
}

// NewRule returns a rule without tests.
func NewRule(name, description string) *Rule {
	return &Rule{Name: name, Description: description}
}

// AddTest appends t to the rule's tests.
func (r *Rule) AddTest(t *TestCase) {
	r.Tests = append(r.Tests, t)
}

// Validate runs every test of the rule in order. A failing test does not
// stop the remaining ones.
func (r *Rule) Validate(ctx context.Context, d Driver) error {
	log.Info().Str("rule", r.Name).Int("tests", len(r.Tests)).Msg("validating rule")
	for _, t := range r.Tests {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.Run(ctx, d)
	}
	return nil
}

// IsValid reports whether all tests passed.
func (r *Rule) IsValid() bool {
	for _, t := range r.Tests {
		if !t.Passed() {
			return false
		}
	}
	return true
}

// FailedCount returns the number of tests that did not pass.
func (r *Rule) FailedCount() int {
	n := 0
	for _, t := range r.Tests {
		if !t.Passed() {
			n++
		}
	}
	return n
}

// FailedTests returns the ids of the tests that did not pass, in test order.
func (r *Rule) FailedTests() []string {
	var ids []string
	for _, t := range r.Tests {
		if !t.Passed() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func (r *Rule) String() string { return r.Name }
