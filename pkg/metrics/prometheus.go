package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal    *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
	whaleAlerts     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whaleradar_signals_total",
				Help: "Total number of accepted trade signals",
			},
			[]string{"symbol", "direction"},
		),
		rejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whaleradar_rejections_total",
				Help: "Total number of rejected evaluations by pipeline stage",
			},
			[]string{"stage"},
		),
		whaleAlerts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whaleradar_whale_alerts_total",
				Help: "Total number of whale alerts raised",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whaleradar_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "whaleradar_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whaleradar_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records an accepted signal.
func (r *Recorder) RecordSignal(symbol, direction string) {
	r.signalsTotal.WithLabelValues(symbol, direction).Inc()
}

// RecordRejection records a rejected evaluation at the given stage.
func (r *Recorder) RecordRejection(stage string) {
	r.rejectionsTotal.WithLabelValues(stage).Inc()
}

// RecordWhaleAlert records a raised whale alert.
func (r *Recorder) RecordWhaleAlert(symbol string) {
	r.whaleAlerts.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
