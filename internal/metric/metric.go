package metric

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/drakos74/astroturf/internal/model"
	"github.com/sjwhitworth/golearn/evaluation"
)

var (
	// UndefinedErr is returned when a metric cannot be computed for the given slice.
	UndefinedErr = errors.New("metric undefined")
)

// Compute evaluates all metrics for the given ground truth, predicted labels and positive class scores.
// Metrics that cannot be computed are set to NaN.
// scores can be nil, in which case the ROC AUC is missing.
func Compute(truth, pred []int, scores []float64) model.Score {
	score := model.MissingScore()
	cm, err := Confusion(truth, pred)
	if err != nil {
		return score
	}
	score.Accuracy = evaluation.GetAccuracy(cm)
	score.Precision = macro(cm, precision)
	score.Recall = macro(cm, recall)
	score.F1 = macro(cm, f1)
	if auc, err := ROCAUC(truth, scores); err == nil {
		score.ROCAUC = auc
	}
	return score
}

// Confusion builds the confusion matrix of the reference and predicted labels.
// The matrix is square over the union of the observed classes.
func Confusion(truth, pred []int) (evaluation.ConfusionMatrix, error) {
	if len(truth) == 0 {
		return nil, fmt.Errorf("no samples: %w", UndefinedErr)
	}
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("%d labels vs %d predictions: %w", len(truth), len(pred), UndefinedErr)
	}
	classes := Classes(truth, pred)
	cm := make(evaluation.ConfusionMatrix, len(classes))
	for _, r := range classes {
		cm[r] = make(map[string]int, len(classes))
		for _, c := range classes {
			cm[r][c] = 0
		}
	}
	for i := range truth {
		cm[label(truth[i])][label(pred[i])]++
	}
	return cm, nil
}

// Classes returns the sorted union of the labels found in the given slices.
func Classes(labels ...[]int) []string {
	set := make(map[int]struct{})
	for _, ll := range labels {
		for _, l := range ll {
			set[l] = struct{}{}
		}
	}
	ii := make([]int, 0, len(set))
	for l := range set {
		ii = append(ii, l)
	}
	sort.Ints(ii)
	classes := make([]string, len(ii))
	for i, l := range ii {
		classes[i] = label(l)
	}
	return classes
}

// Accuracy is the share of correct predictions.
func Accuracy(truth, pred []int) (float64, error) {
	cm, err := Confusion(truth, pred)
	if err != nil {
		return math.NaN(), err
	}
	return evaluation.GetAccuracy(cm), nil
}

// Precision is the macro-averaged precision.
func Precision(truth, pred []int) (float64, error) {
	cm, err := Confusion(truth, pred)
	if err != nil {
		return math.NaN(), err
	}
	return macro(cm, precision), nil
}

// Recall is the macro-averaged recall.
func Recall(truth, pred []int) (float64, error) {
	cm, err := Confusion(truth, pred)
	if err != nil {
		return math.NaN(), err
	}
	return macro(cm, recall), nil
}

// F1 is the macro-averaged f1 score e.g. the unweighted mean of the per class f1 scores.
func F1(truth, pred []int) (float64, error) {
	cm, err := Confusion(truth, pred)
	if err != nil {
		return math.NaN(), err
	}
	return macro(cm, f1), nil
}

// Summary returns the per class report of the given labels.
func Summary(truth, pred []int) string {
	cm, err := Confusion(truth, pred)
	if err != nil {
		return err.Error()
	}
	return evaluation.GetSummary(cm)
}

type classMetric func(class string, cm evaluation.ConfusionMatrix) float64

// macro averages the metric over all classes of the matrix.
// A class with a zero denominator contributes 0.
func macro(cm evaluation.ConfusionMatrix, metric classMetric) float64 {
	if len(cm) == 0 {
		return math.NaN()
	}
	var sum float64
	for class := range cm {
		sum += metric(class, cm)
	}
	return sum / float64(len(cm))
}

func precision(class string, cm evaluation.ConfusionMatrix) float64 {
	tp := evaluation.GetTruePositives(class, cm)
	fp := evaluation.GetFalsePositives(class, cm)
	return safeDiv(tp, tp+fp)
}

func recall(class string, cm evaluation.ConfusionMatrix) float64 {
	tp := evaluation.GetTruePositives(class, cm)
	fn := evaluation.GetFalseNegatives(class, cm)
	return safeDiv(tp, tp+fn)
}

func f1(class string, cm evaluation.ConfusionMatrix) float64 {
	p := precision(class, cm)
	r := recall(class, cm)
	return safeDiv(2*p*r, p+r)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func label(l int) string {
	return strconv.Itoa(l)
}
