package model

import (
	"fmt"
	"io"
	"math"

	"github.com/olekukonko/tablewriter"
	"github.com/rocketlaunchr/dataframe-go"
)

// Row is a named score row of a Table.
type Row struct {
	Name  string `json:"name"`
	Score Score  `json:"score"`
}

// Table is the model-indexed comparison of scores.
// Rows keep the order in which they were added.
type Table struct {
	Rows []Row `json:"rows"`
}

// NewTable creates an empty table.
func NewTable() Table {
	return Table{
		Rows: make([]Row, 0),
	}
}

// Add appends a row, replacing an existing row with the same name.
func (t *Table) Add(name string, score Score) {
	for i, r := range t.Rows {
		if r.Name == name {
			t.Rows[i].Score = score
			return
		}
	}
	t.Rows = append(t.Rows, Row{Name: name, Score: score})
}

// Get returns the score for the given model name.
func (t Table) Get(name string) (Score, bool) {
	for _, r := range t.Rows {
		if r.Name == name {
			return r.Score, true
		}
	}
	return Score{}, false
}

// Names returns the model names in row order.
func (t Table) Names() []string {
	names := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		names[i] = r.Name
	}
	return names
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Render writes the table in a human readable form.
func (t Table) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"Model"}, Columns...))
	for _, r := range t.Rows {
		line := []string{r.Name}
		for _, v := range r.Score.Values() {
			line = append(line, formatMetric(v))
		}
		table.Append(line)
	}
	table.Render()
}

// Frame converts the table into a data frame with one series per metric.
func (t Table) Frame() *dataframe.DataFrame {
	names := make([]interface{}, len(t.Rows))
	columns := make([][]interface{}, len(Columns))
	for i, r := range t.Rows {
		names[i] = r.Name
		for j, v := range r.Score.Values() {
			columns[j] = append(columns[j], nullable(v))
		}
	}
	series := []dataframe.Series{dataframe.NewSeriesString("Model", nil, names...)}
	for j, c := range Columns {
		series = append(series, dataframe.NewSeriesFloat64(c, nil, columns[j]...))
	}
	return dataframe.NewDataFrame(series...)
}

func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}

// nullable maps missing metrics to nil values in a data frame series.
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
