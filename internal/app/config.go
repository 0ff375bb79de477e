package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Study under test
	StudyURL  string
	StudyName string
	User      string
	Password  string

	// Inputs
	TestScriptsDir string
	// Scripts optionally restricts the run to these test spreadsheets.
	Scripts  []string
	SheetExt string

	// Outputs
	ReportsDir     string
	ScreenshotsDir string
	// MetricsFile, when set, receives Prometheus text format gauges.
	MetricsFile string

	// Browser
	Headless    bool
	StepTimeout time.Duration

	// Behavior
	Verbose bool
}

// Defaults used when neither flags, env nor config file set a value.
const (
	DefaultTestScriptsDir = "test_scripts"
	DefaultReportsDir     = "reports"
	DefaultScreenshotsDir = "screenshots"
	DefaultSheetExt       = ".xlsx"
	DefaultStepTimeout    = 15 * time.Second
)

// DefaultConfig returns the configuration used before any file, env or flag
// is applied.
func DefaultConfig() Config {
	return Config{
		TestScriptsDir: DefaultTestScriptsDir,
		ReportsDir:     DefaultReportsDir,
		ScreenshotsDir: DefaultScreenshotsDir,
		SheetExt:       DefaultSheetExt,
		Headless:       true,
		StepTimeout:    DefaultStepTimeout,
	}
}
