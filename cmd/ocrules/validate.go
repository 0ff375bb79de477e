package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/ocrules/internal/app"
)

type validateFlags struct {
	url         string
	study       string
	user        string
	testScripts string
	reports     string
	screenshots string
	sheetExt    string
	headless    bool
	stepTimeout time.Duration
	metricsFile string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate [script...]",
		Short: "Run the rule tests and write the reports",
		Long: `Load the test spreadsheets, run every test through the browser against the
configured study and write the overview and per rule PDF reports, a JSON
run manifest and optionally Prometheus metrics.

Script names given as arguments replace the configured list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, rootOpts, f, args)
			if err != nil {
				return err
			}
			return runValidate(cmd, cfg)
		},
	}

	d := app.DefaultConfig()
	cmd.Flags().StringVar(&f.url, "url", "", "OpenClinica base URL")
	cmd.Flags().StringVar(&f.study, "study", "", "study name to validate")
	cmd.Flags().StringVar(&f.user, "user", "", "OpenClinica user name")
	cmd.Flags().StringVar(&f.testScripts, "tests", d.TestScriptsDir, "directory of test spreadsheets")
	cmd.Flags().StringVar(&f.reports, "reports", d.ReportsDir, "directory for PDF reports and the run manifest")
	cmd.Flags().StringVar(&f.screenshots, "screenshots", d.ScreenshotsDir, "directory for test screenshots")
	cmd.Flags().StringVar(&f.sheetExt, "ext", d.SheetExt, "test spreadsheet extension")
	cmd.Flags().BoolVar(&f.headless, "headless", d.Headless, "run the browser without a window")
	cmd.Flags().DurationVar(&f.stepTimeout, "step-timeout", d.StepTimeout, "timeout for each browser step")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus text format metrics to this file")

	return cmd
}

// buildConfig applies defaults, config file, env and flags in increasing
// precedence.
func buildConfig(cmd *cobra.Command, rootOpts *RootOptions, f *validateFlags, scripts []string) (app.Config, error) {
	cfg := app.DefaultConfig()
	if rootOpts.ConfigPath != "" {
		fc, err := app.LoadConfigFile(rootOpts.ConfigPath)
		if err != nil {
			return cfg, &usageError{fmt.Errorf("config file: %w", err)}
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.StudyURL = f.url
	}
	if flags.Changed("study") {
		cfg.StudyName = f.study
	}
	if flags.Changed("user") {
		cfg.User = f.user
	}
	if flags.Changed("tests") {
		cfg.TestScriptsDir = f.testScripts
	}
	if flags.Changed("reports") {
		cfg.ReportsDir = f.reports
	}
	if flags.Changed("screenshots") {
		cfg.ScreenshotsDir = f.screenshots
	}
	if flags.Changed("ext") {
		cfg.SheetExt = f.sheetExt
	}
	if flags.Changed("headless") {
		cfg.Headless = f.headless
	}
	if flags.Changed("step-timeout") {
		cfg.StepTimeout = f.stepTimeout
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if len(scripts) > 0 {
		cfg.Scripts = scripts
	}
	if rootOpts.Verbose {
		cfg.Verbose = true
	}

	if err := app.ValidateConfig(cfg); err != nil {
		return cfg, &usageError{err}
	}
	return cfg, nil
}

func runValidate(cmd *cobra.Command, cfg app.Config) error {
	setVerbose(cfg.Verbose)
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	res, err := a.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), app.RenderSummary(cfg.StudyName, res.Summary))
	return nil
}
