package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// LoadEnvFiles reads KEY=VALUE pairs, including quoted values and comments,
// into the process environment.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("OC_USER", "")
	t.Setenv("OC_PASSWORD", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nOC_USER=monitor\nOC_PASSWORD=\"s3cret pw\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := LoadEnvFiles(envPath); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}

	if got := os.Getenv("OC_USER"); got != "monitor" {
		t.Fatalf("OC_USER=%q, want monitor", got)
	}
	if got := os.Getenv("OC_PASSWORD"); got != "s3cret pw" {
		t.Fatalf("OC_PASSWORD=%q, want %q", got, "s3cret pw")
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}

	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestLoadEnvFiles_MissingFileSkipped(t *testing.T) {
	if err := LoadEnvFiles(filepath.Join(t.TempDir(), "absent.env"), ""); err != nil {
		t.Fatalf("missing dotenv should be skipped, got %v", err)
	}
}

func TestApplyEnvOverrides_FromEnv(t *testing.T) {
	t.Setenv("OC_URL", " https://oc.example.org/OpenClinica/ ")
	t.Setenv("OC_STUDY", "Demo Study")
	t.Setenv("OC_USER", "monitor")
	t.Setenv("OC_PASSWORD", " pw ")
	t.Setenv("TEST_SCRIPTS_DIR", "/data/tests")
	t.Setenv("REPORTS_DIR", "/data/reports")
	t.Setenv("SCREENSHOTS_DIR", "/data/shots")
	t.Setenv("TEST_SCRIPTS", "visit1, ,baseline")
	t.Setenv("BROWSER_HEADLESS", "off")
	t.Setenv("BROWSER_STEP_TIMEOUT", "30s")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/ocrules.prom")
	t.Setenv("VERBOSE", "yes")

	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)

	if cfg.StudyURL != "https://oc.example.org/OpenClinica/" {
		t.Fatalf("StudyURL=%q", cfg.StudyURL)
	}
	if cfg.StudyName != "Demo Study" || cfg.User != "monitor" {
		t.Fatalf("study/user=%q/%q", cfg.StudyName, cfg.User)
	}
	if cfg.Password != " pw " {
		t.Fatalf("Password=%q, want untrimmed", cfg.Password)
	}
	if cfg.TestScriptsDir != "/data/tests" || cfg.ReportsDir != "/data/reports" || cfg.ScreenshotsDir != "/data/shots" {
		t.Fatalf("paths not applied: %+v", cfg)
	}
	if len(cfg.Scripts) != 2 || cfg.Scripts[0] != "visit1" || cfg.Scripts[1] != "baseline" {
		t.Fatalf("Scripts=%v", cfg.Scripts)
	}
	if cfg.Headless {
		t.Fatalf("Headless should be false")
	}
	if cfg.StepTimeout != 30*time.Second {
		t.Fatalf("StepTimeout=%v", cfg.StepTimeout)
	}
	if cfg.MetricsFile != "/var/lib/node_exporter/ocrules.prom" {
		t.Fatalf("MetricsFile=%q", cfg.MetricsFile)
	}
	if !cfg.Verbose {
		t.Fatalf("Verbose should be true")
	}
}

// Unset or invalid env values leave the current configuration alone.
func TestApplyEnvOverrides_KeepsUnset(t *testing.T) {
	t.Setenv("OC_URL", "")
	t.Setenv("REPORTS_DIR", "")
	t.Setenv("BROWSER_STEP_TIMEOUT", "soon")
	t.Setenv("BROWSER_HEADLESS", "")

	cfg := DefaultConfig()
	cfg.StudyURL = "https://file.example/"
	ApplyEnvOverrides(&cfg)
	if cfg.StudyURL != "https://file.example/" {
		t.Fatalf("StudyURL overwritten: %q", cfg.StudyURL)
	}
	if cfg.ReportsDir != DefaultReportsDir {
		t.Fatalf("ReportsDir=%q", cfg.ReportsDir)
	}
	if cfg.StepTimeout != DefaultStepTimeout {
		t.Fatalf("StepTimeout=%v", cfg.StepTimeout)
	}
	if !cfg.Headless {
		t.Fatalf("Headless default lost")
	}
}
