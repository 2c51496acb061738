package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus holds the collectors of the training runs.
type Prometheus struct {
	Fits     *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Scores   *prometheus.GaugeVec
	Epochs   *prometheus.GaugeVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "astroturf",
				Name:      "fits",
				Help:      "number of model fits by outcome",
			}, []string{"registry", "model", "outcome"}),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "astroturf",
				Name:      "fit_seconds",
				Help:      "duration of model fits",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			}, []string{"registry", "model"}),
		Scores: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "astroturf",
				Name:      "score",
				Help:      "last evaluation metric per model",
			}, []string{"model", "metric"}),
		Epochs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "astroturf",
				Name:      "epochs",
				Help:      "epochs run in the last neural training",
			}, []string{"model"}),
	}
}
