// Package metrics exposes Prometheus counters for the template pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ImportRowsTotal       *prometheus.CounterVec
	ImportFilesTotal      *prometheus.CounterVec
	TemplatesCreatedTotal *prometheus.CounterVec
	LaunchesTotal         *prometheus.CounterVec
	ImportDuration        prometheus.Histogram

	registry *prometheus.Registry
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ImportRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_import_rows_total",
				Help: "Imported rows by outcome",
			},
			[]string{"status"},
		),
		ImportFilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_import_files_total",
				Help: "Import files processed by format",
			},
			[]string{"format"},
		),
		TemplatesCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_templates_created_total",
				Help: "Templates created by source",
			},
			[]string{"source"},
		),
		LaunchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_template_launches_total",
				Help: "Launch materializations by result",
			},
			[]string{"result"},
		),
		ImportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adforge_import_duration_seconds",
				Help:    "Time spent importing one file",
				Buckets: prometheus.DefBuckets,
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.ImportRowsTotal,
		m.ImportFilesTotal,
		m.TemplatesCreatedTotal,
		m.LaunchesTotal,
		m.ImportDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRow(status string) {
	if m != nil {
		m.ImportRowsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveFile(format string, seconds float64) {
	if m != nil {
		m.ImportFilesTotal.WithLabelValues(format).Inc()
		m.ImportDuration.Observe(seconds)
	}
}

func (m *Metrics) ObserveCreated(source string) {
	if m != nil {
		m.TemplatesCreatedTotal.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ObserveLaunch(result string) {
	if m != nil {
		m.LaunchesTotal.WithLabelValues(result).Inc()
	}
}
