package train

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metrics is an optional Prometheus instrumentation set for a training
// run. All metrics live in a private registry so multiple runs in one
// process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	batches       prometheus.Counter
	samples       prometheus.Counter
	loss          prometheus.Gauge
	evalLoss      prometheus.Gauge
	accuracy      prometheus.Gauge
	learningRate  prometheus.Gauge
	epochDuration prometheus.Histogram
}

// NewMetrics creates a metrics set with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grad",
			Subsystem: "train",
			Name:      "batches_total",
			Help:      "Training batches processed.",
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grad",
			Subsystem: "train",
			Name:      "samples_total",
			Help:      "Training samples processed.",
		}),
		loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grad",
			Subsystem: "train",
			Name:      "batch_loss",
			Help:      "Loss of the most recent training batch.",
		}),
		evalLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grad",
			Subsystem: "train",
			Name:      "eval_loss",
			Help:      "Mean loss of the most recent evaluation pass.",
		}),
		accuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grad",
			Subsystem: "train",
			Name:      "eval_accuracy",
			Help:      "Accuracy of the most recent evaluation pass in [0,1].",
		}),
		learningRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grad",
			Subsystem: "train",
			Name:      "learning_rate",
			Help:      "Current optimizer learning rate.",
		}),
		epochDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grad",
			Subsystem: "train",
			Name:      "epoch_duration_seconds",
			Help:      "Wall time per epoch.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	registry.MustRegister(
		m.batches, m.samples, m.loss, m.evalLoss,
		m.accuracy, m.learningRate, m.epochDuration,
	)

	return m
}

// ObserveBatch records one training batch.
func (m *Metrics) ObserveBatch(batchSize int, loss, lr float32) {
	m.batches.Inc()
	m.samples.Add(float64(batchSize))
	m.loss.Set(float64(loss))
	m.learningRate.Set(float64(lr))
}

// ObserveEval records the outcome of an evaluation pass.
func (m *Metrics) ObserveEval(accuracy float32, avgLoss float64) {
	m.accuracy.Set(float64(accuracy))
	m.evalLoss.Set(avgLoss)
}

// ObserveEpoch records the wall time of a completed epoch.
func (m *Metrics) ObserveEpoch(elapsed time.Duration) {
	m.epochDuration.Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler serving the metrics in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gather collects the current metric families, mainly for tests.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}
