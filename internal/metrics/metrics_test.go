package metrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/drakos74/astroturf/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserver(t *testing.T) {
	Observer.Fit("classical", "SGD", time.Now(), nil)
	Observer.Fit("classical", "SGD", time.Now(), errors.New("failed"))
	assert.Equal(t, 1.0, testutil.ToFloat64(Observer.prometheus.Fits.WithLabelValues("classical", "SGD", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(Observer.prometheus.Fits.WithLabelValues("classical", "SGD", "error")))

	Observer.Score("Bayes", model.Score{Accuracy: 0.9, Precision: 0.8, Recall: 0.7, F1: 0.75, ROCAUC: math.NaN()})
	assert.Equal(t, 0.9, testutil.ToFloat64(Observer.prometheus.Scores.WithLabelValues("Bayes", "Accuracy")))

	Observer.Epochs("CNN", 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(Observer.prometheus.Epochs.WithLabelValues("CNN")))
}
