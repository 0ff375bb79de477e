package app

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperifyio/ocrules/internal/battery"
)

type tableDriver map[string]battery.Outcome

func (d tableDriver) Run(ctx context.Context, tc *battery.TestCase) (battery.Outcome, string, error) {
	return d[tc.ID], "", nil
}

func TestRenderSummary(t *testing.T) {
	b := battery.New()
	age := battery.NewRule("R_AGE", "")
	age.AddTest(battery.NewTestCase("R_AGE_01", "R_AGE", "Fires", nil))
	age.AddTest(battery.NewTestCase("R_AGE_02", "R_AGE", "FiresNot", nil))
	wt := battery.NewRule("R_WT", "")
	wt.AddTest(battery.NewTestCase("R_WT_01", "R_WT", "Fires", nil))
	b.SetPage("visit1", []*battery.Rule{age, wt})
	if err := b.Validate(context.Background(), tableDriver{"R_AGE_01": battery.Fires, "R_AGE_02": battery.Fires, "R_WT_01": battery.Fires}); err != nil {
		t.Fatal(err)
	}

	out := RenderSummary("Demo Study", b.Summary())
	for _, want := range []string{
		"Validation of Demo Study",
		"visit1",
		"1 failed",
		"Rules: 2 run, 1 failed",
		"Tests: 3 run, 1 failed",
		"Success rate: 50.0%",
		"FAILED visit1/R_AGE: R_AGE_02",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummary_Empty(t *testing.T) {
	out := RenderSummary("S", battery.New().Summary())
	if !strings.Contains(out, "Success rate: 0.0%") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}
