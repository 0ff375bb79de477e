package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/ocrules/internal/battery"
)

// ManifestFile is the name of the run manifest inside the reports directory.
const ManifestFile = "validation_manifest.json"

// manifestMeta captures high-level run details that aid reproducibility.
type manifestMeta struct {
	RunID      string    `json:"run_id"`
	Version    string    `json:"version"`
	Study      string    `json:"study"`
	StudyURL   string    `json:"study_url"`
	User       string    `json:"user"`
	Scripts    []string  `json:"scripts,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type manifestTotals struct {
	Rules       int     `json:"rules"`
	FailedRules int     `json:"failed_rules"`
	Tests       int     `json:"tests"`
	FailedTests int     `json:"failed_tests"`
	SuccessRate float64 `json:"success_rate"`
}

// manifestTest is a compact record of a single test case result.
type manifestTest struct {
	ID       string `json:"id"`
	Rule     string `json:"rule"`
	Expected string `json:"expected"`
	Observed string `json:"observed"`
	Passed   bool   `json:"passed"`
	Evidence string `json:"evidence,omitempty"`
	// EvidenceSHA256 is the digest of the screenshot as written.
	EvidenceSHA256 string `json:"evidence_sha256,omitempty"`
}

type manifestPage struct {
	Page        string         `json:"page"`
	Rules       int            `json:"rules"`
	FailedRules []string       `json:"failed_rules"`
	Tests       int            `json:"tests"`
	PassedTests int            `json:"passed_tests"`
	Results     []manifestTest `json:"results"`
}

type manifest struct {
	Meta   manifestMeta   `json:"meta"`
	Totals manifestTotals `json:"totals"`
	Pages  []manifestPage `json:"pages"`
}

// buildManifest collects the run results in page order.
func buildManifest(res *Result, cfg Config) manifest {
	t := res.Summary.Totals
	m := manifest{
		Meta: manifestMeta{
			RunID:      res.RunID,
			Version:    BuildVersion,
			Study:      cfg.StudyName,
			StudyURL:   cfg.StudyURL,
			User:       cfg.User,
			Scripts:    cfg.Scripts,
			StartedAt:  res.Started.UTC(),
			FinishedAt: res.Finished.UTC(),
		},
		Totals: manifestTotals{
			Rules:       t.Rules,
			FailedRules: t.FailedRules(),
			Tests:       t.Tests,
			FailedTests: t.FailedTests(),
			SuccessRate: t.SuccessRate(),
		},
		Pages: []manifestPage{},
	}
	for _, ps := range res.Summary.Pages {
		mp := manifestPage{
			Page:        ps.Page,
			Rules:       ps.Rules,
			FailedRules: []string{},
			Tests:       ps.Tests,
			PassedTests: ps.PassedTests,
			Results:     []manifestTest{},
		}
		for _, r := range ps.FailedRules {
			mp.FailedRules = append(mp.FailedRules, r.Name)
		}
		for _, r := range res.Battery.Rules(ps.Page) {
			for _, tc := range r.Tests {
				mp.Results = append(mp.Results, manifestTest{
					ID:             tc.ID,
					Rule:           tc.Rule,
					Expected:       expectedName(tc),
					Observed:       tc.Observed.String(),
					Passed:         tc.Passed(),
					Evidence:       tc.Evidence,
					EvidenceSHA256: fileSHA256Hex(tc.Evidence),
				})
			}
		}
		m.Pages = append(m.Pages, mp)
	}
	return m
}

// expectedName is the outcome name, or the literal as written for
// unrecognized expected results.
func expectedName(tc *battery.TestCase) string {
	if tc.Expected == battery.Other {
		return tc.ExpectedLiteral
	}
	return tc.Expected.String()
}

// fileSHA256Hex returns the lowercase hex SHA-256 of the file at path, or ""
// when it cannot be read.
func fileSHA256Hex(path string) string {
	if path == "" {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// writeManifest encodes the machine-readable manifest into dir and returns
// its path.
func writeManifest(dir string, m manifest) (string, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("reports dir: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
