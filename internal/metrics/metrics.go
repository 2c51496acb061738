package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/drakos74/astroturf/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Observer = &Metrics{
	mutex:      new(sync.RWMutex),
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(
		Observer.prometheus.Fits,
		Observer.prometheus.Duration,
		Observer.prometheus.Scores,
		Observer.prometheus.Epochs,
	)
}

type Metrics struct {
	mutex      *sync.RWMutex
	prometheus Prometheus
}

// Fit records the outcome and the duration of a model fit.
func (m *Metrics) Fit(registry, name string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.prometheus.Fits.WithLabelValues(registry, name, outcome).Inc()
	m.prometheus.Duration.WithLabelValues(registry, name).Observe(time.Since(start).Seconds())
}

// Score exposes the defined metrics of the score.
func (m *Metrics) Score(name string, score model.Score) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i, v := range score.Values() {
		if math.IsNaN(v) {
			continue
		}
		m.prometheus.Scores.WithLabelValues(name, model.Columns[i]).Set(v)
	}
}

// Epochs records the number of epochs of a neural training.
func (m *Metrics) Epochs(name string, epochs int) {
	m.prometheus.Epochs.WithLabelValues(name).Set(float64(epochs))
}

// Serve exposes the metrics on the given port.
// It blocks until the server fails.
func Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
