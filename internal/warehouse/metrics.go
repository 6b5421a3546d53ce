//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-stage load statistics on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	rows     *prometheus.GaugeVec
	dropped  *prometheus.GaugeVec
	duration *prometheus.GaugeVec
	failures *prometheus.CounterVec
}

// NewMetrics creates and registers the stage collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ecomdw",
			Name:      "stage_rows",
			Help:      "Rows in the stage's target table after the stage committed.",
		}, []string{"stage"}),
		dropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ecomdw",
			Name:      "stage_dropped_rows",
			Help:      "Source rows dropped because a reference did not resolve.",
		}, []string{"stage"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ecomdw",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of the stage.",
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecomdw",
			Name:      "stage_failures_total",
			Help:      "Stages that aborted with an error.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(m.rows, m.dropped, m.duration, m.failures)
	return m
}

// Registry returns the registry holding the stage collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeStage(res StageResult) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(res.Stage).Set(float64(res.Rows))
	m.dropped.WithLabelValues(res.Stage).Set(float64(res.Dropped))
	m.duration.WithLabelValues(res.Stage).Set(res.Duration.Seconds())
}

func (m *Metrics) stageFailed(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
	m.duration.WithLabelValues(stage).Set(d.Seconds())
}

// WriteTextfile writes the current values in the node exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
