// Package metrics exposes Prometheus instruments for automation runs and actions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ActionsTotal      *prometheus.CounterVec
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	CandidatesTotal   *prometheus.CounterVec
	AccountFailures   prometheus.Counter
	NotifierFailures  prometheus.Counter
	LastRunTimestamp  prometheus.Gauge
	AutomatedModeFlag prometheus.Gauge
}

// New registers the lifecycle metrics with reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custodian_lifecycle_actions_total",
			Help: "Executed lifecycle actions by kind and outcome",
		}, []string{"action", "outcome"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custodian_lifecycle_runs_total",
			Help: "Automation runs by mode and status",
		}, []string{"mode", "status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodian_lifecycle_run_duration_seconds",
			Help:    "Wall-clock duration of automation runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		CandidatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custodian_lifecycle_candidates_total",
			Help: "Candidate accounts found per axis",
		}, []string{"axis"}),
		AccountFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "custodian_lifecycle_account_failures_total",
			Help: "Per-account processing failures that did not abort the run",
		}),
		NotifierFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "custodian_lifecycle_notification_failures_total",
			Help: "Notifications the notifier reported as not delivered",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "custodian_lifecycle_last_run_timestamp_seconds",
			Help: "Unix time the last automation run finished",
		}),
		AutomatedModeFlag: factory.NewGauge(prometheus.GaugeOpts{
			Name: "custodian_lifecycle_automated_mode",
			Help: "1 when automation mode is automated, 0 when manual",
		}),
	}
}

func (m *Metrics) IncAction(action, outcome string) {
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) IncNotifierFailure() {
	m.NotifierFailures.Inc()
}

func (m *Metrics) IncAccountFailure() {
	m.AccountFailures.Inc()
}

func (m *Metrics) AddCandidates(axis string, n int) {
	m.CandidatesTotal.WithLabelValues(axis).Add(float64(n))
}

func (m *Metrics) ObserveRun(mode, status string, durationSeconds float64, finishedUnix float64) {
	m.RunsTotal.WithLabelValues(mode, status).Inc()
	m.RunDuration.Observe(durationSeconds)
	m.LastRunTimestamp.Set(finishedUnix)
}

func (m *Metrics) SetAutomated(automated bool) {
	if automated {
		m.AutomatedModeFlag.Set(1)
		return
	}
	m.AutomatedModeFlag.Set(0)
}
