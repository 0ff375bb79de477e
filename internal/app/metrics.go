package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// writeMetrics writes the run results as Prometheus gauges in text format
// for a node_exporter textfile collector.
func writeMetrics(path, study string, res *Result) error {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"study": study}

	pageRules := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ocrules_page_rules", Help: "Rules per test page.", ConstLabels: labels,
	}, []string{"page"})
	pageFailedRules := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ocrules_page_failed_rules", Help: "Rules with at least one failed test per test page.", ConstLabels: labels,
	}, []string{"page"})
	pageTests := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ocrules_page_tests", Help: "Tests per test page.", ConstLabels: labels,
	}, []string{"page"})
	pageFailedTests := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ocrules_page_failed_tests", Help: "Failed tests per test page.", ConstLabels: labels,
	}, []string{"page"})
	successRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ocrules_success_rate_percent", Help: "Percentage of valid rules in the run.", ConstLabels: labels,
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ocrules_last_run_timestamp_seconds", Help: "Unix time the run finished.", ConstLabels: labels,
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ocrules_run_duration_seconds", Help: "Wall clock duration of the run.", ConstLabels: labels,
	})
	reg.MustRegister(pageRules, pageFailedRules, pageTests, pageFailedTests, successRate, lastRun, duration)

	for _, ps := range res.Summary.Pages {
		pageRules.WithLabelValues(ps.Page).Set(float64(ps.Rules))
		pageFailedRules.WithLabelValues(ps.Page).Set(float64(len(ps.FailedRules)))
		pageTests.WithLabelValues(ps.Page).Set(float64(ps.Tests))
		pageFailedTests.WithLabelValues(ps.Page).Set(float64(ps.Tests - ps.PassedTests))
	}
	successRate.Set(res.Summary.Totals.SuccessRate())
	lastRun.Set(float64(res.Finished.Unix()))
	duration.Set(res.Finished.Sub(res.Started).Seconds())

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
