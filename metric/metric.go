// Package metric records validation run metrics in a Prometheus registry.
package metric

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/qfai/validation"
)

const namespace = "qfai"

// MetricsRegistry holds the collectors of one process.
type MetricsRegistry struct {
	registry *prometheus.Registry

	runs       prometheus.Counter
	issues     *prometheus.CounterVec
	duration   prometheus.Histogram
	scTotal    prometheus.Gauge
	scCovered  prometheus.Gauge
	testFiles  prometheus.Gauge
	lastFailed prometheus.Gauge
}

// NewMetricsRegistry creates a registry with every qfai collector registered.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Validation runs completed.",
		}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Validation issues by code and severity.",
		}, []string{"code", "severity"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a validation run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		scTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sc_total",
			Help:      "Scenario ids declared in the last run.",
		}),
		scCovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sc_covered",
			Help:      "Scenario ids referenced by at least one test file in the last run.",
		}),
		testFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "test_files_matched",
			Help:      "Test files matched by the configured globs in the last run.",
		}),
		lastFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failed",
			Help:      "1 when the last run failed its fail-on threshold, else 0.",
		}),
	}
	m.registry.MustRegister(m.runs, m.issues, m.duration, m.scTotal, m.scCovered, m.testFiles, m.lastFailed)
	return m
}

// Registry exposes the underlying Prometheus registry.
func (m *MetricsRegistry) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one finished run.
func (m *MetricsRegistry) Observe(result *validation.Result, elapsed time.Duration, failed bool) {
	m.runs.Inc()
	m.duration.Observe(elapsed.Seconds())
	for _, i := range result.Issues {
		m.issues.WithLabelValues(string(i.Code), string(i.Severity)).Inc()
	}
	sc := result.Traceability.SC
	m.scTotal.Set(float64(sc.Total))
	m.scCovered.Set(float64(sc.Covered))
	m.testFiles.Set(float64(result.Traceability.TestFiles.MatchedFileCount))
	if failed {
		m.lastFailed.Set(1)
	} else {
		m.lastFailed.Set(0)
	}
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *MetricsRegistry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
