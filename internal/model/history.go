package model

import (
	"github.com/rocketlaunchr/dataframe-go"
)

// HistoryColumns are the tracked columns of a training history, in export order.
var HistoryColumns = []string{"epoch", "loss", "val_loss", "accuracy", "precision", "recall", "f1", "roc_auc"}

// Epoch holds the metrics recorded at the end of one training epoch.
// Loss is the mean training loss, the rest is evaluated on the validation set.
type Epoch struct {
	Index     int     `json:"epoch"`
	Loss      float64 `json:"loss"`
	ValLoss   float64 `json:"val_loss"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ROCAUC    float64 `json:"roc_auc"`
}

// Score returns the classification metrics of the epoch.
func (e Epoch) Score() Score {
	return Score{
		Accuracy:  e.Accuracy,
		Precision: e.Precision,
		Recall:    e.Recall,
		F1:        e.F1,
		ROCAUC:    e.ROCAUC,
	}
}

func (e Epoch) values() []float64 {
	return []float64{float64(e.Index), e.Loss, e.ValLoss, e.Accuracy, e.Precision, e.Recall, e.F1, e.ROCAUC}
}

// HistoryFrame is the per-epoch record of a neural training run.
// Its length is the number of epochs actually run.
type HistoryFrame struct {
	Epochs  []Epoch `json:"epochs"`
	Stopped bool    `json:"stopped"`
}

// NewHistoryFrame creates an empty history with room for the given epoch budget.
func NewHistoryFrame(budget int) HistoryFrame {
	return HistoryFrame{
		Epochs: make([]Epoch, 0, budget),
	}
}

// Push appends an epoch record.
func (h *HistoryFrame) Push(e Epoch) {
	h.Epochs = append(h.Epochs, e)
}

// Len returns the number of recorded epochs.
func (h HistoryFrame) Len() int {
	return len(h.Epochs)
}

// Last returns the record of the final epoch.
func (h HistoryFrame) Last() (Epoch, bool) {
	if len(h.Epochs) == 0 {
		return Epoch{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

// Column returns the values of the given column over all epochs.
func (h HistoryFrame) Column(name string) []float64 {
	idx := -1
	for i, c := range HistoryColumns {
		if c == name {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	values := make([]float64, len(h.Epochs))
	for i, e := range h.Epochs {
		values[i] = e.values()[idx]
	}
	return values
}

// Frame converts the history into a data frame with one series per tracked column.
func (h HistoryFrame) Frame() *dataframe.DataFrame {
	epochs := make([]interface{}, len(h.Epochs))
	for i, e := range h.Epochs {
		epochs[i] = int64(e.Index)
	}
	series := []dataframe.Series{dataframe.NewSeriesInt64(HistoryColumns[0], nil, epochs...)}
	for _, c := range HistoryColumns[1:] {
		values := make([]interface{}, 0, len(h.Epochs))
		for _, v := range h.Column(c) {
			values = append(values, nullable(v))
		}
		series = append(series, dataframe.NewSeriesFloat64(c, nil, values...))
	}
	return dataframe.NewDataFrame(series...)
}

// NamedHistory is the history of one registry entry.
type NamedHistory struct {
	Name    string       `json:"name"`
	History HistoryFrame `json:"history"`
}

// Histories keeps the training histories in registry order.
type Histories []NamedHistory

// Get returns the history for the given model name.
func (hh Histories) Get(name string) (HistoryFrame, bool) {
	for _, h := range hh {
		if h.Name == name {
			return h.History, true
		}
	}
	return HistoryFrame{}, false
}

// Summary extracts the final-epoch metrics of every history into a table.
func (hh Histories) Summary() Table {
	table := NewTable()
	for _, h := range hh {
		if last, ok := h.History.Last(); ok {
			table.Add(h.Name, last.Score())
		} else {
			table.Add(h.Name, MissingScore())
		}
	}
	return table
}
