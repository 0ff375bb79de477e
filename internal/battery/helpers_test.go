package battery

import (
	"context"
	"fmt"
	"strings"
)

// fakeDriver returns scripted outcomes keyed by test id and records the order
// in which tests were run.
type fakeDriver struct {
	outcomes map[string]Outcome
	errs     map[string]error
	ran      []string
	inputs   map[string][]Input
}

func (d *fakeDriver) Run(_ context.Context, tc *TestCase) (Outcome, string, error) {
	d.ran = append(d.ran, tc.ID)
	if d.inputs == nil {
		d.inputs = map[string][]Input{}
	}
	d.inputs[tc.ID] = append([]Input(nil), tc.Inputs...)
	shot := "/shots/screenshot_" + tc.ID + ".png"
	if err, ok := d.errs[tc.ID]; ok {
		return Fires, shot, err
	}
	return d.outcomes[tc.ID], shot, nil
}

// recordingDoc captures document operations as text lines.
type recordingDoc struct {
	path  string
	ops   []string
	saved bool
	err   error
}

func (d *recordingDoc) Heading(text string, size float64, align Align) {
	d.ops = append(d.ops, fmt.Sprintf("heading(%g,%d) %s", size, align, text))
}
func (d *recordingDoc) Paragraph(text string) { d.ops = append(d.ops, "p "+text) }
func (d *recordingDoc) Spacer(mm float64)     { d.ops = append(d.ops, "spacer") }
func (d *recordingDoc) HorizontalLine()       { d.ops = append(d.ops, "line") }
func (d *recordingDoc) PageBreak()            { d.ops = append(d.ops, "pagebreak") }
func (d *recordingDoc) Image(path string)     { d.ops = append(d.ops, "image "+path) }
func (d *recordingDoc) Save() error {
	d.saved = true
	return d.err
}

func (d *recordingDoc) text() string { return strings.Join(d.ops, "\n") }

// docFactory hands out recordingDocs and remembers them by path.
type docFactory struct {
	docs  map[string]*recordingDoc
	order []string
}

func (f *docFactory) new(path string) Document {
	if f.docs == nil {
		f.docs = map[string]*recordingDoc{}
	}
	d := &recordingDoc{path: path}
	f.docs[path] = d
	f.order = append(f.order, path)
	return d
}

// sheet builds spreadsheet rows with a header for ParseRows.
func sheet(rows ...[]string) [][]string {
	header := []string{"Test ID", "Rule Name", "Rule Message", "Rule Expression", "Expected Result", "Rule Item", "Rule Item Value"}
	return append([][]string{header}, rows...)
}

// memReader serves rows from memory keyed by path.
type memReader map[string][][]string

func (m memReader) Rows(path string) ([][]string, error) {
	rows, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return rows, nil
}
