package app

import (
	"os"
	"strings"
	"time"
)

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := strings.TrimSpace(os.Getenv("OC_URL")); v != "" {
		cfg.StudyURL = v
	}
	if v := strings.TrimSpace(os.Getenv("OC_STUDY")); v != "" {
		cfg.StudyName = v
	}
	if v := strings.TrimSpace(os.Getenv("OC_USER")); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("OC_PASSWORD"); v != "" {
		cfg.Password = v
	}

	if v := strings.TrimSpace(os.Getenv("TEST_SCRIPTS_DIR")); v != "" {
		cfg.TestScriptsDir = v
	}
	if v := strings.TrimSpace(os.Getenv("REPORTS_DIR")); v != "" {
		cfg.ReportsDir = v
	}
	if v := strings.TrimSpace(os.Getenv("SCREENSHOTS_DIR")); v != "" {
		cfg.ScreenshotsDir = v
	}
	if v := strings.TrimSpace(os.Getenv("METRICS_TEXTFILE")); v != "" {
		cfg.MetricsFile = v
	}
	if v := splitList(os.Getenv("TEST_SCRIPTS")); len(v) > 0 {
		cfg.Scripts = v
	}

	if s := os.Getenv("BROWSER_STEP_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			cfg.StepTimeout = d
		}
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Headless, "BROWSER_HEADLESS")
	setBool(&cfg.Verbose, "VERBOSE")
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
