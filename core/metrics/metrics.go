package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Update loop metrics
var (
	// UpdatesTotal counts dispatched updates by kind and outcome (ok, fail, dropped)
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prefixbot_updates_total",
			Help: "Total inbound Telegram updates by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// HandlerDuration tracks handler latency in seconds, replies included
	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prefixbot_handler_duration_seconds",
			Help:    "Update handler duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	// HandlerPanics counts recovered handler panics
	HandlerPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prefixbot_handler_panics_total",
			Help: "Total recovered panics in update handlers",
		},
	)

	// PendingSelections is the number of users with a stored button selection
	PendingSelections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prefixbot_pending_selections",
			Help: "Users with a pending button selection",
		},
	)

	// TelegramErrors counts errors reported by the Telegram client by class
	TelegramErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prefixbot_telegram_errors_total",
			Help: "Telegram client and handler errors by class",
		},
		[]string{"class"},
	)
)

// Liveness metrics
var (
	// ProbesTotal counts liveness requests by method and status code
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prefixbot_liveness_probes_total",
			Help: "Total liveness probe requests by method and status code",
		},
		[]string{"method", "code"},
	)
)
