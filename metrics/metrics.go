package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	currency "github.com/malusev998/rate-sync"
)

// RunMetrics groups the collectors fed by each synchronisation run.
// A nil *RunMetrics is valid and records nothing.
type RunMetrics struct {
	PairsTotal       *prometheus.CounterVec
	RunsTotal        *prometheus.CounterVec
	InverseRate      *prometheus.GaugeVec
	LastSuccessRate  prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
	RunDuration      prometheus.Histogram
}

func NewRunMetrics(registerer prometheus.Registerer) *RunMetrics {
	m := &RunMetrics{
		PairsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_sync_pairs_total",
				Help: "Processed currency pairs by outcome",
			},
			[]string{"pair", "outcome"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_sync_runs_total",
				Help: "Synchronisation runs by classification",
			},
			[]string{"classification"},
		),
		InverseRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rate_sync_inverse_rate",
				Help: "Last inverse rate written for a pair",
			},
			[]string{"pair"},
		),
		LastSuccessRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rate_sync_last_success_rate_percent",
			Help: "Success rate of the last completed run",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rate_sync_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rate_sync_run_duration_seconds",
			Help:    "Duration of completed runs",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registerer.MustRegister(
		m.PairsTotal,
		m.RunsTotal,
		m.InverseRate,
		m.LastSuccessRate,
		m.LastRunTimestamp,
		m.RunDuration,
	)

	return m
}

func (m *RunMetrics) ObservePair(result currency.PairResult) {
	if m == nil {
		return
	}

	m.PairsTotal.WithLabelValues(result.Label, string(result.Outcome)).Inc()

	if result.Outcome == currency.OutcomeSucceeded {
		m.InverseRate.WithLabelValues(result.Label).Set(result.Rate)
	}
}

func (m *RunMetrics) ObserveRun(summary currency.Summary) {
	if m == nil {
		return
	}

	m.RunsTotal.WithLabelValues(string(summary.Classification())).Inc()
	m.LastSuccessRate.Set(summary.SuccessRate())
	m.LastRunTimestamp.Set(float64(summary.FinishedAt.Unix()))
	m.RunDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
}

// ObserveUnavailable counts a run aborted because no rates could be fetched.
func (m *RunMetrics) ObserveUnavailable() {
	if m == nil {
		return
	}

	m.RunsTotal.WithLabelValues("rates unavailable").Inc()
}
