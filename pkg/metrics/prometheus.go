package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	alertsFired     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	triggeredLevels *prometheus.GaugeVec
	tickDuration    *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		alertsFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levelwatch_alerts_fired_total",
				Help: "Total number of level alerts fired",
			},
			[]string{"symbol", "timeframe"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levelwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "levelwatch_mark_price",
				Help: "Last observed mark price for a symbol",
			},
			[]string{"symbol"},
		),
		triggeredLevels: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "levelwatch_triggered_levels",
				Help: "Number of currently triggered levels per symbol",
			},
			[]string{"symbol"},
		),
		tickDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "levelwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAlertFired records a fired alert for a symbol and timeframe.
func (r *Recorder) RecordAlertFired(symbol, timeframe string) {
	r.alertsFired.WithLabelValues(symbol, timeframe).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordMarkPrice records the last mark price for a symbol.
func (r *Recorder) RecordMarkPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordTriggeredLevels records how many levels are triggered for a symbol.
func (r *Recorder) RecordTriggeredLevels(symbol string, n int) {
	r.triggeredLevels.WithLabelValues(symbol).Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.tickDuration.WithLabelValues(op).Observe(seconds)
}
