package battery

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Classified driver failures. A driver wraps one of these so the log line
// names the step that failed; the recorded outcome is Undefined either way.
var (
	ErrRuleNotFound = errors.New("rule not found")
	ErrInputEntry   = errors.New("input entry failed")
	ErrResultParse  = errors.New("result not parseable")
)

// Driver executes a single test case against the application and reports
// the observed outcome plus the path of an evidence screenshot.
type Driver interface {
	Run(ctx context.Context, tc *TestCase) (Outcome, string, error)
}

// Input is one item/value pair entered into the rule test form.
type Input struct {
	Name  string
	Value string
}

// TestCase holds the values for one test of a rule as authored in a test
// spreadsheet, and the outcome once it has run.
type TestCase struct {
	ID              string
	Rule            string
	Expected        Outcome
	ExpectedLiteral string
	Inputs          []Input

	Observed Outcome
	Evidence string
}

// NewTestCase builds a test case. Input values are normalized and a repeated
// item name keeps its first position but takes the later value.
func NewTestCase(id, rule, expected string, inputs []Input) *TestCase {
	tc := &TestCase{
		ID:              id,
		Rule:            rule,
		Expected:        ParseOutcome(expected),
		ExpectedLiteral: strings.TrimSpace(expected),
	}
	pos := make(map[string]int, len(inputs))
	for _, in := range inputs {
		in.Value = NormalizeValue(in.Value)
		if i, ok := pos[in.Name]; ok {
			tc.Inputs[i].Value = in.Value
			continue
		}
		pos[in.Name] = len(tc.Inputs)
		tc.Inputs = append(tc.Inputs, in)
	}
	return tc
}

var integralFloat = regexp.MustCompile(`^([+-]?\d+)\.0+$`)

// NormalizeValue strips a zero fractional part from numeric values, as
// spreadsheets store whole numbers as floats: "12.0" becomes "12" while
// "12.5" is returned unchanged.
func NormalizeValue(v string) string {
	if m := integralFloat.FindStringSubmatch(strings.TrimSpace(v)); m != nil {
		return m[1]
	}
	return v
}

// Passed reports whether the observed outcome equals the expected one.
func (t *TestCase) Passed() bool {
	return t.Expected == t.Observed
}

// ExpectedLabel is the expected outcome in report wording; unknown literals
// are shown as written.
func (t *TestCase) ExpectedLabel() string {
	if t.Expected == Other {
		if t.ExpectedLiteral == "" {
			return "Not set"
		}
		return t.ExpectedLiteral
	}
	return t.Expected.Label()
}

// Run executes the test once through d and records the outcome. Driver
// failures never propagate: the outcome becomes Undefined and whatever
// evidence the driver managed to capture is kept.
func (t *TestCase) Run(ctx context.Context, d Driver) {
	outcome, evidence, err := d.Run(ctx, t)
	t.Evidence = evidence
	if err == nil {
		t.Observed = outcome
		log.Debug().Str("rule", t.Rule).Str("test", t.ID).Stringer("outcome", outcome).Bool("passed", t.Passed()).Msg("test ran")
		return
	}
	t.Observed = Undefined
	switch {
	case errors.Is(err, ErrRuleNotFound), errors.Is(err, ErrInputEntry), errors.Is(err, ErrResultParse):
		log.Warn().Err(err).Str("rule", t.Rule).Str("test", t.ID).Str("evidence", evidence).Msg("test undetermined")
	default:
		log.Error().Err(err).Str("rule", t.Rule).Str("test", t.ID).Str("evidence", evidence).Msg("driver failure; test undetermined")
	}
}

func (t *TestCase) String() string { return t.ID }
