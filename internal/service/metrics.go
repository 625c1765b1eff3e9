package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
)

// Run results
const (
	RunResultOK    = "ok"
	RunResultHeld  = "held"
	RunResultError = "error"
)

// Metrics holds the resender Prometheus collectors
type Metrics struct {
	Runs        *prometheus.CounterVec
	Units       *prometheus.CounterVec
	Watermark   prometheus.Gauge
	RunDuration prometheus.Histogram
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "resender_runs_total",
			Help: "Number of resend runs by result",
		}, []string{"result"}),
		Units: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "resender_units_total",
			Help: "Number of processed message units by outcome",
		}, []string{"outcome"}),
		Watermark: factory.NewGauge(prometheus.GaugeOpts{
			Name: "resender_watermark",
			Help: "Last fully processed source message id",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "resender_run_duration_seconds",
			Help:    "Resend run duration seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveUnit counts one unit outcome
func (m *Metrics) ObserveUnit(outcome domain.UnitOutcome) {
	if m == nil {
		return
	}
	m.Units.WithLabelValues(string(outcome)).Inc()
}

// ObserveRun records the result of a finished run
func (m *Metrics) ObserveRun(report *domain.RunReport, err error) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(runResult(report, err)).Inc()
	m.RunDuration.Observe(report.Duration.Seconds())
	if report.HasWatermark || report.EndWatermark > 0 {
		m.Watermark.Set(float64(report.EndWatermark))
	}
}

func runResult(report *domain.RunReport, err error) string {
	switch {
	case err != nil:
		return RunResultError
	case report.Held():
		return RunResultHeld
	}
	return RunResultOK
}
