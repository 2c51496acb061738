package metric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ROCAUC computes the area under the roc curve for binary labels,
// given the scores for the positive class (label 1).
func ROCAUC(truth []int, scores []float64) (float64, error) {
	if scores == nil {
		return math.NaN(), fmt.Errorf("no probability scores: %w", UndefinedErr)
	}
	if len(truth) != len(scores) {
		return math.NaN(), fmt.Errorf("%d labels vs %d scores: %w", len(truth), len(scores), UndefinedErr)
	}
	y := make([]float64, len(scores))
	classes := make([]bool, len(truth))
	var pos, neg int
	for i, t := range truth {
		switch t {
		case 0:
			neg++
		case 1:
			pos++
			classes[i] = true
		default:
			return math.NaN(), fmt.Errorf("label %d is not binary: %w", t, UndefinedErr)
		}
		if math.IsNaN(scores[i]) {
			return math.NaN(), fmt.Errorf("score at %d is NaN: %w", i, UndefinedErr)
		}
		y[i] = scores[i]
	}
	if pos == 0 || neg == 0 {
		return math.NaN(), fmt.Errorf("only one class present [pos:%d|neg:%d]: %w", pos, neg, UndefinedErr)
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
