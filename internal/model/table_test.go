package model

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	table := NewTable()
	table.Add("SGD", Score{Accuracy: 0.9, Precision: 0.8, Recall: 0.7, F1: 0.75, ROCAUC: 0.95})
	table.Add("SVM", MissingScore())
	table.Add("SGD", Score{Accuracy: 0.5, Precision: 0.5, Recall: 0.5, F1: 0.5, ROCAUC: 0.5})

	assert.Equal(t, []string{"SGD", "SVM"}, table.Names())
	score, ok := table.Get("SGD")
	assert.True(t, ok)
	assert.Equal(t, 0.5, score.Accuracy)
	svm, ok := table.Get("SVM")
	assert.True(t, ok)
	assert.Len(t, svm.Missing(), len(Columns))

	var buf bytes.Buffer
	table.Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "ROC AUC")
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "NaN")

	df := table.Frame()
	assert.Equal(t, 2, df.NRows())
	assert.Equal(t, append([]string{"Model"}, Columns...), df.Names())
}

func TestHistories_Summary(t *testing.T) {
	h := NewHistoryFrame(3)
	h.Push(Epoch{Index: 1, Loss: 0.7, ValLoss: 0.69, Accuracy: 0.5, Precision: 0.5, Recall: 0.5, F1: 0.5, ROCAUC: 0.5})
	h.Push(Epoch{Index: 2, Loss: 0.5, ValLoss: 0.52, Accuracy: 0.8, Precision: 0.8, Recall: 0.8, F1: 0.8, ROCAUC: math.NaN()})

	assert.Equal(t, []float64{0.7, 0.5}, h.Column("loss"))
	assert.Equal(t, []float64{1, 2}, h.Column("epoch"))
	assert.Nil(t, h.Column("unknown"))

	hh := Histories{
		{Name: "CNN", History: h},
		{Name: "LSTM", History: NewHistoryFrame(3)},
	}
	table := hh.Summary()
	assert.Equal(t, []string{"CNN", "LSTM"}, table.Names())
	cnn, _ := table.Get("CNN")
	assert.Equal(t, 0.8, cnn.Accuracy)
	assert.Equal(t, []string{"ROC AUC"}, cnn.Missing())
	lstm, _ := table.Get("LSTM")
	assert.Len(t, lstm.Missing(), len(Columns))

	df := h.Frame()
	assert.Equal(t, 2, df.NRows())
	assert.Equal(t, HistoryColumns, df.Names())
}
