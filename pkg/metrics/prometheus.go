package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes Prometheus instruments for the prediction service.
type Recorder struct {
	predictions      *prometheus.CounterVec
	trainingRuns     *prometheus.CounterVec
	fetchErrors      *prometheus.CounterVec
	predictedPrice   *prometheus.GaugeVec
	trainingDuration *prometheus.HistogramVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_predictions_total",
				Help: "Total number of predictions served",
			},
			[]string{"algorithm", "symbol"},
		),
		trainingRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_training_runs_total",
				Help: "Total number of training runs by outcome",
			},
			[]string{"algorithm", "status"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_fetch_errors_total",
				Help: "Total number of market data fetch failures",
			},
			[]string{"symbol"},
		),
		predictedPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_last_predicted_price",
				Help: "Last predicted close price for a symbol",
			},
			[]string{"symbol", "algorithm"},
		),
		trainingDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_training_duration_seconds",
				Help:    "Duration of training runs in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"algorithm"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records one served prediction.
func (r *Recorder) RecordPrediction(algorithm, symbol string, price float64) {
	r.predictions.WithLabelValues(algorithm, symbol).Inc()
	r.predictedPrice.WithLabelValues(symbol, algorithm).Set(price)
}

// RecordTraining records a training run outcome and duration.
func (r *Recorder) RecordTraining(algorithm, status string, seconds float64) {
	r.trainingRuns.WithLabelValues(algorithm, status).Inc()
	r.trainingDuration.WithLabelValues(algorithm).Observe(seconds)
}

// RecordFetchError records a market data fetch failure.
func (r *Recorder) RecordFetchError(symbol string) {
	r.fetchErrors.WithLabelValues(symbol).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
