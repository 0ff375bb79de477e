package battery

import "strings"

// Outcome is the result of evaluating a rule for one test case, either as
// expected by the test author or as observed in the application.
type Outcome int

const (
	// Undefined means the test has not run or the result could not be
	// determined. It is only ever observed, never expected.
	Undefined Outcome = iota
	// Fires means the rule's action was triggered.
	Fires
	// FiresNot means the rule's action was not triggered.
	FiresNot
	// Other is an expected-result literal that is neither Fires nor FiresNot,
	// including a blank cell.
	Other
)

// ParseOutcome maps an expected-result cell to an Outcome. Blank cells map to
// Other so that no observed outcome can match them.
func ParseOutcome(s string) Outcome {
	switch strings.TrimSpace(s) {
	case "Fires":
		return Fires
	case "FiresNot":
		return FiresNot
	default:
		return Other
	}
}

// Label returns the wording used in reports.
func (o Outcome) Label() string {
	switch o {
	case Fires:
		return "Fires"
	case FiresNot:
		return "Does NOT fire"
	case Other:
		return "Other"
	default:
		return "Undefined"
	}
}

func (o Outcome) String() string {
	switch o {
	case Fires:
		return "Fires"
	case FiresNot:
		return "FiresNot"
	case Other:
		return "Other"
	default:
		return "Undefined"
	}
}
