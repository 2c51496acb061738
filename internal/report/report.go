package report

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drakos74/astroturf/internal/model"
	"github.com/guptarohit/asciigraph"
	"github.com/rocketlaunchr/dataframe-go/exports"
	"github.com/rs/zerolog/log"
)

const dateFormat = "2006-01-02"

// FileName returns the date stamped file name for the history of the given model.
func FileName(date time.Time, name, ext string) string {
	return fmt.Sprintf("%s-%s-history.%s", date.Format(dateFormat), name, ext)
}

// Export writes the history of a model as csv and as a rendered chart into dir.
func Export(dir string, date time.Time, name string, history model.HistoryFrame) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not make dir: %s: %w", dir, err)
	}

	csvPath := filepath.Join(dir, FileName(date, name, "csv"))
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("could not create file '%s': %w", csvPath, err)
	}
	defer f.Close()
	nan := "NaN"
	if err := exports.ExportToCSV(context.Background(), f, history.Frame(), exports.CSVExportOptions{
		NullString: &nan,
	}); err != nil {
		return fmt.Errorf("could not export history to '%s': %w", csvPath, err)
	}

	chartPath := filepath.Join(dir, FileName(date, name, "txt"))
	if err := os.WriteFile(chartPath, []byte(Chart(name, history)), 0644); err != nil {
		return fmt.Errorf("could not write chart '%s': %w", chartPath, err)
	}

	log.Info().
		Str("model", name).
		Str("csv", csvPath).
		Str("chart", chartPath).
		Int("epochs", history.Len()).
		Msg("exported history")
	return nil
}

// Chart renders every tracked metric of the history over the epochs.
func Chart(name string, history model.HistoryFrame) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s [epochs:%d|stopped:%v]\n", name, history.Len(), history.Stopped))
	for _, c := range model.HistoryColumns[1:] {
		series := finite(history.Column(c))
		if len(series) == 0 {
			b.WriteString(fmt.Sprintf("\n%s: no values\n", c))
			continue
		}
		b.WriteString("\n")
		b.WriteString(asciigraph.Plot(series,
			asciigraph.Height(8),
			asciigraph.Caption(c),
		))
		b.WriteString("\n")
	}
	return b.String()
}

// finite drops the missing values of the series.
func finite(values []float64) []float64 {
	series := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			series = append(series, v)
		}
	}
	return series
}
