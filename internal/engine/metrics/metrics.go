package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rateengine/internal/engine"
)

// QuoteMetrics holds the quote pipeline metrics.
type QuoteMetrics struct {
	QuotesTotal   prometheus.CounterVec
	QuoteDuration prometheus.HistogramVec
}

func NewQuoteMetrics() *QuoteMetrics {
	return &QuoteMetrics{
		QuotesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotes_total",
				Help: "Total number of quote requests by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),

		QuoteDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quote_duration_seconds",
				Help:    "Quote resolution time in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms, 10ms, 20ms...
			},
			[]string{"backend"},
		),
	}
}

// RecordQuote records a single quote attempt.
func (m *QuoteMetrics) RecordQuote(backend, outcome string, durationSeconds float64) {
	m.QuotesTotal.WithLabelValues(backend, outcome).Inc()
	m.QuoteDuration.WithLabelValues(backend).Observe(durationSeconds)
}

// Backend wraps another backend and records metrics around every quote.
type Backend struct {
	B engine.Backend
	M *QuoteMetrics
}

func (b *Backend) Name() string { return b.B.Name() }

func (b *Backend) Quote(ctx context.Context, from, to string, feePct *float64) (engine.Quote, error) {
	start := time.Now()
	q, err := b.B.Quote(ctx, from, to, feePct)
	if b.M != nil {
		b.M.RecordQuote(b.B.Name(), outcome(err), time.Since(start).Seconds())
	}
	return q, err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var noRoute *engine.NoRouteError
	if errors.As(err, &noRoute) {
		return "no_route"
	}
	var unsupported *engine.UnsupportedPairError
	if errors.As(err, &unsupported) {
		return "unsupported_pair"
	}
	var missing *engine.MissingManualRateError
	if errors.As(err, &missing) {
		return "missing_manual_rate"
	}
	return "error"
}
