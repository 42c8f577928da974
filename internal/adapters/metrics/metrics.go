// Package metrics expone las métricas de sincronización en formato Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics implementa ports.SyncMetrics sobre un registry propio.
type SyncMetrics struct {
	registry *prometheus.Registry

	SyncRuns       *prometheus.CounterVec
	SyncDuration   prometheus.Histogram
	BetTransitions *prometheus.CounterVec
	DeferredGames  prometheus.Counter
	BankrollUnits  prometheus.Gauge
}

// NewSyncMetrics crea y registra los colectores.
func NewSyncMetrics() *SyncMetrics {
	registry := prometheus.NewRegistry()

	m := &SyncMetrics{
		registry: registry,

		SyncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pratracker_sync_runs_total",
				Help: "Result sync runs by outcome",
			},
			[]string{"status"},
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pratracker_sync_duration_seconds",
				Help:    "Wall time of a result sync run",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
			},
		),
		BetTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pratracker_bet_transitions_total",
				Help: "Bets moved out of PENDING, by new result",
			},
			[]string{"result"},
		),
		DeferredGames: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pratracker_deferred_games_total",
				Help: "Games left for a later sync after exhausting retries",
			},
		),
		BankrollUnits: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pratracker_bankroll_units",
				Help: "Current bankroll after the last ledger rebuild",
			},
		),
	}

	registry.MustRegister(
		m.SyncRuns,
		m.SyncDuration,
		m.BetTransitions,
		m.DeferredGames,
		m.BankrollUnits,
	)
	return m
}

// Registry devuelve el registry para servirlo por HTTP.
func (m *SyncMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *SyncMetrics) ObserveSync(status string, d time.Duration) {
	m.SyncRuns.WithLabelValues(status).Inc()
	m.SyncDuration.Observe(d.Seconds())
}

func (m *SyncMetrics) IncTransition(result string) {
	m.BetTransitions.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) IncDeferred() {
	m.DeferredGames.Inc()
}

func (m *SyncMetrics) SetBankroll(units float64) {
	m.BankrollUnits.Set(units)
}
