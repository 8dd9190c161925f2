package translatron

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	outcomeOK          = "ok"
	outcomeForbidden   = "forbidden"
	outcomeDecodeError = "decode_error"
	outcomeConfigError = "config_error"
	outcomeTranslation = "translation_error"
	outcomeAction      = "action_error"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translatron_requests_total",
			Help: "Webhook events handled, by outcome",
		},
		[]string{"outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translatron_request_duration_seconds",
			Help:    "Time to handle one webhook event in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"outcome"},
	)

	translationsPerMessage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "translatron_translations_per_message",
			Help:    "Translations produced for each message",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translatron_actions_total",
			Help: "Action invocations, by action and status",
		},
		[]string{"action", "status"},
	)

	actionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translatron_action_duration_seconds",
			Help:    "Duration of action invocations in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"action"},
	)
)

func observeRequest(outcome string, start time.Time) {
	requestsTotal.WithLabelValues(outcome).Inc()
	requestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func observeAction(name string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	actionsTotal.WithLabelValues(name, status).Inc()
	actionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
