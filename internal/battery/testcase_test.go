package battery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcome(t *testing.T) {
	assert.Equal(t, Fires, ParseOutcome("Fires"))
	assert.Equal(t, FiresNot, ParseOutcome(" FiresNot "))
	assert.Equal(t, Other, ParseOutcome(""))
	assert.Equal(t, Other, ParseOutcome("  "))
	assert.Equal(t, Other, ParseOutcome("fires"))
	assert.Equal(t, Other, ParseOutcome("Maybe"))
}

func TestNormalizeValue(t *testing.T) {
	cases := map[string]string{
		"12.0":   "12",
		"12.00":  "12",
		"-3.0":   "-3",
		"12.5":   "12.5",
		"12":     "12",
		"":       "",
		"abc.0":  "abc.0",
		"1.0.0":  "1.0.0",
		"0.0":    "0",
		"12.50":  "12.50",
		"2020.0": "2020",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeValue(in), "input %q", in)
	}
}

func TestNewTestCase_NormalizesAndMergesInputs(t *testing.T) {
	tc := NewTestCase("R_01", "R", "Fires", []Input{
		{Name: "AGE", Value: "12.0"},
		{Name: "WEIGHT", Value: "12.5"},
		{Name: "AGE", Value: "40.0"},
	})
	require.Len(t, tc.Inputs, 2)
	assert.Equal(t, Input{Name: "AGE", Value: "40"}, tc.Inputs[0])
	assert.Equal(t, Input{Name: "WEIGHT", Value: "12.5"}, tc.Inputs[1])
	assert.Equal(t, Undefined, tc.Observed)
	assert.Equal(t, "", tc.Evidence)
}

func TestPassed_IsEqualityOfOutcomes(t *testing.T) {
	for _, exp := range []string{"Fires", "FiresNot", "", "Other"} {
		for _, obs := range []Outcome{Undefined, Fires, FiresNot} {
			tc := NewTestCase("T", "R", exp, nil)
			tc.Observed = obs
			assert.Equal(t, tc.Expected == obs, tc.Passed(), "expected=%q observed=%v", exp, obs)
		}
	}
}

func TestPassed_BeforeRun(t *testing.T) {
	assert.False(t, NewTestCase("T", "R", "Fires", nil).Passed())
	assert.False(t, NewTestCase("T", "R", "FiresNot", nil).Passed())
	assert.False(t, NewTestCase("T", "R", "", nil).Passed())
}

func TestRun_BlankExpectedFailsOnDriverError(t *testing.T) {
	rules, err := ParseRows("demo", sheet(
		[]string{"R_01", "R", "msg", "AGE gt 17", "", "AGE", "40"},
	))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	r := rules[0]
	d := &fakeDriver{errs: map[string]error{"R_01": ErrRuleNotFound}}
	require.NoError(t, r.Validate(context.Background(), d))

	tc := r.Tests[0]
	assert.Equal(t, Other, tc.Expected)
	assert.Equal(t, Undefined, tc.Observed)
	assert.False(t, tc.Passed())
	assert.False(t, r.IsValid())
	assert.Equal(t, 1, r.FailedCount())
}

func TestRun_RecordsOutcomeAndEvidence(t *testing.T) {
	d := &fakeDriver{outcomes: map[string]Outcome{"T1": FiresNot}}
	tc := NewTestCase("T1", "R", "FiresNot", []Input{{Name: "ITEM_A", Value: "12.0"}})
	tc.Run(context.Background(), d)
	assert.Equal(t, FiresNot, tc.Observed)
	assert.Equal(t, "/shots/screenshot_T1.png", tc.Evidence)
	assert.True(t, tc.Passed())
	assert.Equal(t, []Input{{Name: "ITEM_A", Value: "12"}}, d.inputs["T1"])
}

func TestRun_DriverErrorsBecomeUndefined(t *testing.T) {
	errs := []error{
		ErrRuleNotFound,
		errors.Join(errors.New("no such element #AGE"), ErrInputEntry),
		ErrResultParse,
		errors.New("browser crashed"),
	}
	for _, err := range errs {
		d := &fakeDriver{errs: map[string]error{"T1": err}}
		tc := NewTestCase("T1", "R", "Fires", nil)
		tc.Run(context.Background(), d)
		assert.Equal(t, Undefined, tc.Observed, "err %v", err)
		assert.Equal(t, "/shots/screenshot_T1.png", tc.Evidence)
		assert.False(t, tc.Passed())
	}
}

func TestExpectedLabel(t *testing.T) {
	assert.Equal(t, "Fires", NewTestCase("T", "R", "Fires", nil).ExpectedLabel())
	assert.Equal(t, "Does NOT fire", NewTestCase("T", "R", "FiresNot", nil).ExpectedLabel())
	assert.Equal(t, "Unclear", NewTestCase("T", "R", "Unclear", nil).ExpectedLabel())
	assert.Equal(t, "Not set", NewTestCase("T", "R", "", nil).ExpectedLabel())
	assert.Equal(t, "Undefined", Undefined.Label())
}
