package model

import (
	"fmt"
	"math"
)

// Columns are the metric columns of every score table, in order.
var Columns = []string{"Accuracy", "Precision", "Recall", "f1", "ROC AUC"}

// Score holds the evaluation metrics of one model.
// A NaN value marks a metric that could not be computed.
type Score struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ROCAUC    float64 `json:"roc_auc"`
}

// MissingScore returns a score with all metrics missing.
func MissingScore() Score {
	nan := math.NaN()
	return Score{
		Accuracy:  nan,
		Precision: nan,
		Recall:    nan,
		F1:        nan,
		ROCAUC:    nan,
	}
}

// Values returns the metrics in column order.
func (s Score) Values() []float64 {
	return []float64{s.Accuracy, s.Precision, s.Recall, s.F1, s.ROCAUC}
}

// Missing returns the names of the metrics that are not defined.
func (s Score) Missing() []string {
	missing := make([]string, 0)
	for i, v := range s.Values() {
		if math.IsNaN(v) {
			missing = append(missing, Columns[i])
		}
	}
	return missing
}

// Format prints the score in a compact form.
func (s Score) Format() string {
	return fmt.Sprintf("[acc:%.3f|pre:%.3f|rec:%.3f|f1:%.3f|auc:%.3f]",
		s.Accuracy, s.Precision, s.Recall, s.F1, s.ROCAUC)
}
