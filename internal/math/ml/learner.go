package ml

import (
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/drakos74/astroturf/internal/model"
)

var (
	// NotTrainedErr is returned when a learner is used before it was fitted or restored.
	NotTrainedErr = errors.New("learner not trained")
	// ShapeErr is returned when the input does not match the learner dimensions.
	ShapeErr = errors.New("shape mismatch")
)

// Learner is the common prediction contract of all models.
type Learner interface {
	// Predict returns the class label for each row of x.
	Predict(x [][]float64) ([]int, error)
	// PredictProba returns the class probabilities for each row of x.
	// Binary learners return two columns, the second one being the positive class.
	PredictProba(x [][]float64) ([][]float64, error)
}

// Estimator is a learner that is fitted in one shot.
type Estimator interface {
	Learner
	Fit(x [][]float64, y []int) error
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Network is a learner that is trained over epochs against a validation set.
type Network interface {
	Learner
	Train(ctx context.Context, train, val model.Dataset, cfg TrainingConfig) (model.HistoryFrame, error)
	json.Marshaler
	json.Unmarshaler
}

// Positive extracts the positive class column out of a probability matrix.
func Positive(proba [][]float64) []float64 {
	scores := make([]float64, len(proba))
	for i, p := range proba {
		if len(p) > 1 {
			scores[i] = p[1]
		}
	}
	return scores
}

// Argmax returns the index of the largest probability for each row.
func Argmax(proba [][]float64) []int {
	labels := make([]int, len(proba))
	for i, p := range proba {
		best := 0
		for j := range p {
			if p[j] > p[best] {
				best = j
			}
		}
		labels[i] = best
	}
	return labels
}

func checkFit(x [][]float64, y []int) (int, error) {
	if len(x) == 0 {
		return 0, fmt.Errorf("no training rows: %w", ShapeErr)
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%d rows vs %d labels: %w", len(x), len(y), ShapeErr)
	}
	dim := len(x[0])
	for i, row := range x {
		if len(row) != dim {
			return 0, fmt.Errorf("row %d has %d columns instead of %d: %w", i, len(row), dim, ShapeErr)
		}
	}
	return dim, nil
}

func checkInput(x [][]float64, dim int) error {
	for i, row := range x {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d columns instead of %d: %w", i, len(row), dim, ShapeErr)
		}
	}
	return nil
}

// checkBinary verifies that all labels are 0 or 1.
func checkBinary(y []int) error {
	for i, l := range y {
		if l != 0 && l != 1 {
			return fmt.Errorf("label %d at row %d is not binary: %w", l, i, ShapeErr)
		}
	}
	return nil
}

// classes returns the number of classes for the labels, never less than 2.
func classes(y []int) int {
	n := 2
	for _, l := range y {
		if l+1 > n {
			n = l + 1
		}
	}
	return n
}
