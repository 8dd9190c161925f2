package translate

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Translation backend call metrics
	translatorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translatron_translator_requests_total",
			Help: "Total number of calls made to the translation backend",
		},
		[]string{"engine", "operation", "status"},
	)

	translatorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translatron_translator_request_duration_seconds",
			Help:    "Duration of translation backend calls in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"engine", "operation", "status"},
	)

	translatorRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translatron_translator_request_size_bytes",
			Help:    "Size of text sent to the translation backend in bytes",
			Buckets: []float64{10, 50, 160, 320, 640, 1600, 5000},
		},
		[]string{"engine", "operation"},
	)

	detectedLanguagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translatron_detected_languages_total",
			Help: "Languages reported by detection",
		},
		[]string{"engine", "language"},
	)
)

// ErrLanguagesUnavailable is returned by an instrumented translator whose
// backend cannot list its languages.
var ErrLanguagesUnavailable = errors.New("backend does not list supported languages")

// instrumented wraps a Translator and records metrics for every call.
type instrumented struct {
	next   Translator
	engine string
}

// Instrument wraps tr so every call is counted and timed under engine.
// The wrapper also exposes HealthChecker and LanguageLister, delegating to
// tr when it implements them.
func Instrument(tr Translator, engine string) Translator {
	return &instrumented{next: tr, engine: engine}
}

func (i *instrumented) DetectLanguage(ctx context.Context, text string) (string, error) {
	start := time.Now()
	lang, err := i.next.DetectLanguage(ctx, text)
	i.record("detect", start, len(text), err)
	if err == nil {
		detectedLanguagesTotal.WithLabelValues(i.engine, lang).Inc()
	}
	return lang, err
}

func (i *instrumented) Translate(ctx context.Context, text, targetLang, detectedLang string) (string, error) {
	start := time.Now()
	out, err := i.next.Translate(ctx, text, targetLang, detectedLang)
	i.record("translate", start, len(text), err)
	return out, err
}

func (i *instrumented) CheckHealth(ctx context.Context) error {
	if hc, ok := i.next.(HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return nil
}

func (i *instrumented) SupportedLanguages(ctx context.Context) ([]string, error) {
	if ll, ok := i.next.(LanguageLister); ok {
		return ll.SupportedLanguages(ctx)
	}
	return nil, ErrLanguagesUnavailable
}

func (i *instrumented) record(op string, start time.Time, size int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	translatorRequestsTotal.WithLabelValues(i.engine, op, status).Inc()
	translatorRequestDuration.WithLabelValues(i.engine, op, status).Observe(time.Since(start).Seconds())
	translatorRequestSize.WithLabelValues(i.engine, op).Observe(float64(size))
}
