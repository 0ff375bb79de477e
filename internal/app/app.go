package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ocrules/internal/battery"
	"github.com/hyperifyio/ocrules/internal/browser"
	"github.com/hyperifyio/ocrules/internal/report"
	"github.com/hyperifyio/ocrules/internal/sheet"
)

// Driver is a logged-in execution driver that can switch studies.
type Driver interface {
	battery.Driver
	Login(ctx context.Context, user, password string) error
	SetStudy(ctx context.Context, study string) error
	Close() error
}

// DriverFactory starts a driver for cfg.
type DriverFactory func(ctx context.Context, cfg Config) (Driver, error)

// Option customizes an App.
type Option func(*App)

// WithDriver replaces the browser driver.
func WithDriver(f DriverFactory) Option { return func(a *App) { a.newDriver = f } }

// WithDocument replaces the PDF document factory used for reports.
func WithDocument(f battery.NewDocument) Option { return func(a *App) { a.newDoc = f } }

// WithRowReader replaces the spreadsheet reader.
func WithRowReader(r battery.RowReader) Option { return func(a *App) { a.reader = r } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(a *App) { a.now = now } }

type App struct {
	cfg       Config
	newDriver DriverFactory
	newDoc    battery.NewDocument
	reader    battery.RowReader
	now       func() time.Time
}

// Result describes a completed validation run.
type Result struct {
	RunID    string
	Battery  *battery.Battery
	Summary  battery.Summary
	Started  time.Time
	Finished time.Time
	// Manifest is the path of the JSON run manifest.
	Manifest string
}

func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.SheetExt == "" {
		cfg.SheetExt = DefaultSheetExt
	}
	a := &App{
		cfg:       cfg,
		newDriver: newBrowserDriver,
		newDoc:    report.NewDocument,
		reader:    sheet.Reader{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

func newBrowserDriver(ctx context.Context, cfg Config) (Driver, error) {
	s, err := browser.New(ctx, browser.Options{
		BaseURL:       cfg.StudyURL,
		ScreenshotDir: cfg.ScreenshotsDir,
		Headless:      cfg.Headless,
		StepTimeout:   cfg.StepTimeout,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) Close() {
	// nothing held between runs
}

// Run loads the configured test spreadsheets, runs every test through the
// driver and writes the reports, manifest and metrics. Spreadsheets are
// loaded before the driver starts so input errors never open a browser.
func (a *App) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Started: a.now()}
	logger := log.With().Str("run_id", res.RunID).Logger()

	b, err := battery.Load(battery.LoadOptions{
		Dir:     a.cfg.TestScriptsDir,
		Scripts: a.cfg.Scripts,
		Ext:     a.cfg.SheetExt,
		Reader:  a.reader,
	})
	if err != nil {
		return nil, fmt.Errorf("load tests: %w", err)
	}
	res.Battery = b
	pages := b.Pages()
	logger.Info().Int("pages", len(pages)).Str("dir", a.cfg.TestScriptsDir).Msg("tests loaded")

	if countRules(b) > 0 {
		if err := a.validate(ctx, b); err != nil {
			return nil, err
		}
	} else {
		logger.Warn().Msg("no rules found; writing empty reports")
	}

	res.Finished = a.now()
	res.Summary = b.Summary()
	if err := b.CreateReports(a.cfg.ReportsDir, a.newDoc, battery.ReportOptions{Study: a.cfg.StudyName, Date: res.Started}); err != nil {
		return nil, fmt.Errorf("write reports: %w", err)
	}
	manifest, err := writeManifest(a.cfg.ReportsDir, buildManifest(res, a.cfg))
	if err != nil {
		return nil, err
	}
	res.Manifest = manifest
	if a.cfg.MetricsFile != "" {
		if err := writeMetrics(a.cfg.MetricsFile, a.cfg.StudyName, res); err != nil {
			return nil, err
		}
	}
	t := res.Summary.Totals
	logger.Info().
		Int("rules", t.Rules).Int("failedRules", t.FailedRules()).
		Int("tests", t.Tests).Int("failedTests", t.FailedTests()).
		Str("manifest", manifest).
		Msg("validation finished")
	return res, nil
}

// validate starts the driver, selects the study and runs the battery.
func (a *App) validate(ctx context.Context, b *battery.Battery) error {
	d, err := a.newDriver(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("start driver: %w", err)
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("driver close")
		}
	}()
	if err := d.Login(ctx, a.cfg.User, a.cfg.Password); err != nil {
		return err
	}
	if err := d.SetStudy(ctx, a.cfg.StudyName); err != nil {
		return err
	}
	return b.Validate(ctx, d)
}

func countRules(b *battery.Battery) int {
	n := 0
	for _, p := range b.Pages() {
		n += len(b.Rules(p))
	}
	return n
}
