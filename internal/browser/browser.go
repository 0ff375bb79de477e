// Package browser drives an OpenClinica instance through a headless Chrome
// session to run rule tests the way a data manager would by hand.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ocrules/internal/battery"
	"github.com/hyperifyio/ocrules/internal/extract"
)

var (
	// ErrLogin is returned when the login form cannot be submitted or the
	// study home page does not appear afterwards.
	ErrLogin = errors.New("login failed")
	// ErrStudyNotFound is returned when the requested study is not in the
	// user's study list.
	ErrStudyNotFound = errors.New("study not found")
)

// Defaults applied by New.
const (
	DefaultStepTimeout = 15 * time.Second
	DefaultWidth       = 800
	DefaultHeight      = 600
)

// Selectors of the OpenClinica pages used.
const (
	selUsername     = `input[name="j_username"]`
	selPassword     = `input[name="j_password"]`
	selLoginSubmit  = `[name="submit"]`
	selStudyInfo    = `#StudyInfo`
	selChangeStudy  = `//a[contains(normalize-space(.), 'Change Study/Site')]`
	selStudySubmit  = `[name="Submit"]`
	selTestRuleLink = `//a[contains(@href, 'TestRule')]`
	selValidateTest = `//input[@value='Validate & Test']`
)

// Options configures a browser session.
type Options struct {
	// BaseURL is the OpenClinica root, e.g. https://oc.example.org/OpenClinica/.
	BaseURL string
	// ScreenshotDir receives one screenshot per test case.
	ScreenshotDir string
	Headless      bool
	// StepTimeout bounds every wait for a page element.
	StepTimeout time.Duration
	Width       int
	Height      int
}

// Session is a logged-in browser tab. It implements battery.Driver.
type Session struct {
	opts Options

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

var _ battery.Driver = (*Session)(nil)

// New starts a browser. The browser lives until Close is called or ctx is
// cancelled.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultWidth, DefaultHeight
	}
	opts.BaseURL = BaseURL(opts.BaseURL)
	if opts.ScreenshotDir != "" {
		if err := os.MkdirAll(opts.ScreenshotDir, 0o755); err != nil {
			return nil, fmt.Errorf("screenshot dir: %w", err)
		}
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	// The first Run launches the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	log.Debug().Bool("headless", opts.Headless).Dur("stepTimeout", opts.StepTimeout).Msg("browser started")
	return &Session{opts: opts, ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	if s == nil || s.cancelTab == nil {
		return nil
	}
	s.cancelTab()
	s.cancelAlloc()
	s.cancelTab = nil
	return nil
}

// step runs actions with the per-step timeout, giving up early when ctx is
// cancelled.
func (s *Session) step(ctx context.Context, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(s.ctx, s.opts.StepTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(stepCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Login opens the base URL and signs in.
func (s *Session) Login(ctx context.Context, user, password string) error {
	err := s.step(ctx,
		chromedp.Navigate(s.opts.BaseURL),
		chromedp.SendKeys(selUsername, user, chromedp.ByQuery),
		chromedp.SendKeys(selPassword, password, chromedp.ByQuery),
		chromedp.Click(selLoginSubmit, chromedp.ByQuery),
		chromedp.WaitVisible(selStudyInfo, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %v", ErrLogin, err)
	}
	log.Info().Str("url", s.opts.BaseURL).Str("user", user).Msg("logged in")
	return nil
}

// SetStudy makes study the active study unless it already is.
func (s *Session) SetStudy(ctx context.Context, study string) error {
	current, err := s.currentStudy(ctx)
	if err == nil && current == study {
		log.Debug().Str("study", study).Msg("study already active")
		return nil
	}
	err = s.step(ctx,
		chromedp.Click(selChangeStudy, chromedp.BySearch),
		chromedp.Click(StudyRadioXPath(study), chromedp.BySearch),
		chromedp.Click(selStudySubmit, chromedp.ByQuery),
		// The second submit confirms the change.
		chromedp.Click(selStudySubmit, chromedp.ByQuery),
		chromedp.WaitVisible(selStudyInfo, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %q: %v", ErrStudyNotFound, study, err)
	}
	log.Info().Str("study", study).Msg("study selected")
	return nil
}

func (s *Session) currentStudy(ctx context.Context) (string, error) {
	doc, err := s.outerHTML(ctx)
	if err != nil {
		return "", err
	}
	p, err := extract.Parse([]byte(doc))
	if err != nil {
		return "", err
	}
	return p.CurrentStudy()
}

func (s *Session) outerHTML(ctx context.Context) (string, error) {
	var doc string
	err := s.step(ctx, chromedp.OuterHTML("html", &doc, chromedp.ByQuery))
	return doc, err
}

// Run executes one test case: it opens the rule's test page, enters every
// input value, validates and reads whether actions fired. A screenshot is
// written whatever the result, and its path returned when it exists.
func (s *Session) Run(ctx context.Context, tc *battery.TestCase) (battery.Outcome, string, error) {
	if err := ctx.Err(); err != nil {
		return battery.Undefined, "", err
	}
	shot := ScreenshotPath(s.opts.ScreenshotDir, tc.ID)
	outcome, err := s.run(ctx, tc)
	evidence := ""
	if serr := s.screenshot(ctx, shot); serr != nil {
		log.Debug().Err(serr).Str("test", tc.ID).Msg("screenshot failed")
	} else {
		evidence = shot
	}
	return outcome, evidence, err
}

func (s *Session) run(ctx context.Context, tc *battery.TestCase) (battery.Outcome, error) {
	var links []*cdp.Node
	err := s.step(ctx,
		chromedp.Navigate(RuleURL(s.opts.BaseURL, tc.Rule)),
		chromedp.Nodes(selTestRuleLink, &links, chromedp.BySearch, chromedp.AtLeast(2)),
	)
	if err == nil {
		// The rule row carries the second TestRule link.
		err = s.step(ctx,
			chromedp.MouseClickNode(links[1]),
			chromedp.Click(selValidateTest, chromedp.BySearch),
		)
	}
	if err != nil {
		return battery.Undefined, s.classify(ctx, fmt.Errorf("%w: %s: %v", battery.ErrRuleNotFound, tc.Rule, err))
	}

	for _, in := range tc.Inputs {
		sel := ItemXPath(in.Name)
		actions := []chromedp.Action{chromedp.Clear(sel, chromedp.BySearch)}
		if in.Value != "" {
			actions = append(actions, chromedp.SendKeys(sel, in.Value, chromedp.BySearch))
		}
		if err := s.step(ctx, actions...); err != nil {
			return battery.Undefined, s.classify(ctx, fmt.Errorf("%w: item %s: %v", battery.ErrInputEntry, in.Name, err))
		}
	}

	var doc string
	err = s.step(ctx,
		chromedp.Click(selValidateTest, chromedp.BySearch),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &doc, chromedp.ByQuery),
	)
	if err != nil {
		return battery.Undefined, s.classify(ctx, fmt.Errorf("%w: %v", battery.ErrResultParse, err))
	}
	return OutcomeFromHTML(doc)
}

// classify prefers the caller's cancellation over a step failure.
func (s *Session) classify(ctx context.Context, wrapped error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return wrapped
}

func (s *Session) screenshot(ctx context.Context, path string) error {
	if path == "" || ctx.Err() != nil {
		return errors.New("no screenshot target")
	}
	var buf []byte
	if err := s.step(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// BaseURL returns u with a trailing slash so page names can be appended.
func BaseURL(u string) string {
	u = strings.TrimSpace(u)
	if u != "" && !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

// RuleURL is the rule assignment listing filtered to a single rule name.
func RuleURL(base, rule string) string {
	q := "module=admin&maxRows=15&showMoreLink=true" +
		"&ruleAssignments_tr_=true&ruleAssignments_p_=1&ruleAssignments_mr_=15" +
		"&ruleAssignments_f_ruleName=" + url.QueryEscape(rule)
	return BaseURL(base) + "ViewRuleAssignment?" + q
}

// ScreenshotPath is where the evidence of test id is stored.
func ScreenshotPath(dir, id string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "screenshot_"+id+".png")
}

// StudyRadioXPath selects the study radio button next to the bold study name
// on the Change Study/Site page.
func StudyRadioXPath(study string) string {
	return fmt.Sprintf(`//td/b[contains(text(), %s)]/../input[@name='studyId']`, xpathLiteral(study))
}

// ItemXPath selects a rule test form field by element id. Item ids contain
// dots, which CSS id selectors would misread.
func ItemXPath(id string) string {
	return fmt.Sprintf(`//*[@id=%s]`, xpathLiteral(id))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

// OutcomeFromHTML reads the "Actions Fired" cell of a rule test result page.
// Y means the rule fires, N that it does not; anything else is undetermined.
func OutcomeFromHTML(doc string) (battery.Outcome, error) {
	p, err := extract.Parse([]byte(doc))
	if err != nil {
		return battery.Undefined, fmt.Errorf("%w: %v", battery.ErrResultParse, err)
	}
	v, err := p.ActionsFired()
	if err != nil {
		return battery.Undefined, fmt.Errorf("%w: %v", battery.ErrResultParse, err)
	}
	switch v {
	case "Y":
		return battery.Fires, nil
	case "N":
		return battery.FiresNot, nil
	}
	return battery.Undefined, fmt.Errorf("%w: actions fired %q", battery.ErrResultParse, v)
}
