package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags/env.
type FileConfig struct {
	Study struct {
		URL      string `yaml:"url" json:"url"`
		Name     string `yaml:"name" json:"name"`
		User     string `yaml:"user" json:"user"`
		Password string `yaml:"password" json:"password"`
	} `yaml:"study" json:"study"`

	Paths struct {
		TestScripts string `yaml:"testScripts" json:"testScripts"`
		Reports     string `yaml:"reports" json:"reports"`
		Screenshots string `yaml:"screenshots" json:"screenshots"`
	} `yaml:"paths" json:"paths"`

	Scripts  []string `yaml:"scripts" json:"scripts"`
	SheetExt string   `yaml:"sheetExt" json:"sheetExt"`

	Browser struct {
		Headless *bool `yaml:"headless" json:"headless"`
		// StepTimeout is a Go duration string such as "20s".
		StepTimeout string `yaml:"stepTimeout" json:"stepTimeout"`
	} `yaml:"browser" json:"browser"`

	Metrics struct {
		Textfile string `yaml:"textfile" json:"textfile"`
	} `yaml:"metrics" json:"metrics"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	if s := trim(fc.Browser.StepTimeout); s != "" {
		if _, err := time.ParseDuration(s); err != nil {
			return fc, fmt.Errorf("browser.stepTimeout: %w", err)
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. Call it on a
// DefaultConfig before env overrides and flags are applied.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if fc.Study.URL != "" {
		cfg.StudyURL = trim(fc.Study.URL)
	}
	if fc.Study.Name != "" {
		cfg.StudyName = trim(fc.Study.Name)
	}
	if fc.Study.User != "" {
		cfg.User = trim(fc.Study.User)
	}
	if fc.Study.Password != "" {
		cfg.Password = fc.Study.Password
	}

	if fc.Paths.TestScripts != "" {
		cfg.TestScriptsDir = trim(fc.Paths.TestScripts)
	}
	if fc.Paths.Reports != "" {
		cfg.ReportsDir = trim(fc.Paths.Reports)
	}
	if fc.Paths.Screenshots != "" {
		cfg.ScreenshotsDir = trim(fc.Paths.Screenshots)
	}

	if len(fc.Scripts) > 0 {
		cfg.Scripts = append([]string{}, fc.Scripts...)
	}
	if fc.SheetExt != "" {
		cfg.SheetExt = trim(fc.SheetExt)
	}

	if fc.Browser.Headless != nil {
		cfg.Headless = *fc.Browser.Headless
	}
	if d, err := time.ParseDuration(trim(fc.Browser.StepTimeout)); err == nil && d > 0 {
		cfg.StepTimeout = d
	}

	if fc.Metrics.Textfile != "" {
		cfg.MetricsFile = trim(fc.Metrics.Textfile)
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal validation of the settings a validation
// run needs.
func ValidateConfig(cfg Config) error {
	if trim(cfg.StudyURL) == "" {
		return errors.New("config: study.url is required (or set OC_URL)")
	}
	if trim(cfg.StudyName) == "" {
		return errors.New("config: study.name is required (or set OC_STUDY)")
	}
	if trim(cfg.User) == "" {
		return errors.New("config: study.user is required (or set OC_USER)")
	}
	if trim(cfg.TestScriptsDir) == "" {
		return errors.New("config: paths.testScripts is required")
	}
	if trim(cfg.ReportsDir) == "" {
		return errors.New("config: paths.reports is required")
	}
	if cfg.StepTimeout < 0 {
		return errors.New("config: negative browser.stepTimeout is not allowed")
	}
	return nil
}

func trim(s string) string {
	i := 0
	j := len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\n' || s[j-1] == '\r') {
		j--
	}
	return s[i:j]
}
