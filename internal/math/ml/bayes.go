package ml

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"github.com/drakos74/astroturf/internal/buffer"
	"gonum.org/v1/gonum/floats"
)

// Bayes is a gaussian naive bayes classifier.
type Bayes struct {
	smoothing float64
	dim       int
	priors    []float64
	means     [][]float64
	variances [][]float64
}

// NewBayes creates a gaussian naive bayes classifier.
// The variances are smoothed by the given share of the largest feature variance.
func NewBayes(smoothing float64) *Bayes {
	return &Bayes{smoothing: smoothing}
}

// Fit estimates the per class feature moments.
func (b *Bayes) Fit(x [][]float64, y []int) error {
	dim, err := checkFit(x, y)
	if err != nil {
		return err
	}
	n := classes(y)
	all := buffer.NewStatsCollector(dim)
	perClass := make([]*buffer.StatsCollector, n)
	for c := range perClass {
		perClass[c] = buffer.NewStatsCollector(dim)
	}
	for i, row := range x {
		if y[i] < 0 {
			return fmt.Errorf("negative label %d: %w", y[i], ShapeErr)
		}
		all.Push(row...)
		perClass[y[i]].Push(row...)
	}
	var maxVar float64
	for _, s := range all.Stats() {
		maxVar = math.Max(maxVar, s.Variance())
	}
	epsilon := b.smoothing * maxVar

	b.dim = dim
	b.priors = make([]float64, n)
	b.means = make([][]float64, n)
	b.variances = make([][]float64, n)
	for c, sc := range perClass {
		b.means[c] = make([]float64, dim)
		b.variances[c] = make([]float64, dim)
		if sc.Size() == 0 {
			// unseen class, never predicted
			b.priors[c] = 0
			for j := range b.variances[c] {
				b.variances[c][j] = 1
			}
			continue
		}
		b.priors[c] = float64(sc.Size()) / float64(len(x))
		b.means[c] = sc.Means()
		for j, v := range sc.Variances() {
			b.variances[c][j] = v + epsilon
			if b.variances[c][j] == 0 {
				// constant feature across the whole set
				b.variances[c][j] = math.SmallestNonzeroFloat64
			}
		}
	}
	return nil
}

// jointLog returns the log joint likelihood of the row for every class.
func (b *Bayes) jointLog(row []float64) []float64 {
	ll := make([]float64, len(b.priors))
	for c := range b.priors {
		if b.priors[c] == 0 {
			ll[c] = math.Inf(-1)
			continue
		}
		l := math.Log(b.priors[c])
		for j, v := range row {
			d := v - b.means[c][j]
			l -= 0.5*math.Log(2*math.Pi*b.variances[c][j]) + d*d/(2*b.variances[c][j])
		}
		ll[c] = l
	}
	return ll
}

// PredictProba returns the posterior class probabilities of every row.
func (b *Bayes) PredictProba(x [][]float64) ([][]float64, error) {
	if b.priors == nil {
		return nil, NotTrainedErr
	}
	if err := checkInput(x, b.dim); err != nil {
		return nil, err
	}
	proba := make([][]float64, len(x))
	for i, row := range x {
		ll := b.jointLog(row)
		norm := floats.LogSumExp(ll)
		p := make([]float64, len(ll))
		for c := range ll {
			p[c] = math.Exp(ll[c] - norm)
		}
		proba[i] = p
	}
	return proba, nil
}

// Predict returns the most likely label of every row.
func (b *Bayes) Predict(x [][]float64) ([]int, error) {
	proba, err := b.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return Argmax(proba), nil
}

type bayesState struct {
	Smoothing float64
	Dim       int
	Priors    []float64
	Means     [][]float64
	Variances [][]float64
}

// MarshalBinary encodes the fitted moments.
func (b *Bayes) MarshalBinary() ([]byte, error) {
	if b.priors == nil {
		return nil, NotTrainedErr
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(bayesState{
		Smoothing: b.smoothing,
		Dim:       b.dim,
		Priors:    b.priors,
		Means:     b.means,
		Variances: b.variances,
	})
	return buf.Bytes(), err
}

// UnmarshalBinary restores the fitted moments.
func (b *Bayes) UnmarshalBinary(data []byte) error {
	var state bayesState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	if len(state.Priors) == 0 || len(state.Means) != len(state.Priors) || len(state.Variances) != len(state.Priors) {
		return fmt.Errorf("inconsistent bayes state for %d classes: %w", len(state.Priors), ShapeErr)
	}
	b.smoothing = state.Smoothing
	b.dim = state.Dim
	b.priors = state.Priors
	b.means = state.Means
	b.variances = state.Variances
	return nil
}
