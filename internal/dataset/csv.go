package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/drakos74/astroturf/internal/model"
	"github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"
)

var (
	// LabelNotFoundErr is returned when the csv has no label column.
	LabelNotFoundErr = errors.New("label column not found")
)

// Load reads a csv file with a header into a dataset.
// All columns apart from the label one are used as features.
func Load(ctx context.Context, path string, label string) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("could not open '%s': %w", path, err)
	}
	defer f.Close()
	ds, err := Read(ctx, f, label)
	if err != nil {
		return ds, fmt.Errorf("could not read '%s': %w", path, err)
	}
	log.Info().
		Str("path", path).
		Int("rows", ds.Len()).
		Int("features", ds.Dim()).
		Interface("classes", ds.Counts()).
		Msg("loaded dataset")
	return ds, nil
}

// Read parses csv content into a dataset.
func Read(ctx context.Context, r io.ReadSeeker, label string) (model.Dataset, error) {
	df, err := imports.LoadFromCSV(ctx, r, imports.CSVLoadOptions{
		InferDataTypes: true,
	})
	if err != nil {
		return model.Dataset{}, err
	}
	return FromFrame(df, label)
}

// FromFrame converts a data frame into a dataset.
// Missing values are not allowed.
func FromFrame(df *dataframe.DataFrame, label string) (model.Dataset, error) {
	labelIdx := -1
	features := make([]dataframe.Series, 0, len(df.Series))
	for i, s := range df.Series {
		if s.Name() == label {
			labelIdx = i
			continue
		}
		features = append(features, s)
	}
	if labelIdx < 0 {
		return model.Dataset{}, fmt.Errorf("'%s' in %v: %w", label, df.Names(), LabelNotFoundErr)
	}
	n := df.NRows()
	x := make([][]float64, n)
	y := make([]int, n)
	for row := 0; row < n; row++ {
		x[row] = make([]float64, len(features))
		for j, s := range features {
			v, err := number(s.Value(row))
			if err != nil {
				return model.Dataset{}, fmt.Errorf("row %d column '%s': %w", row, s.Name(), err)
			}
			x[row][j] = v
		}
		v, err := number(df.Series[labelIdx].Value(row))
		if err != nil {
			return model.Dataset{}, fmt.Errorf("row %d label: %w", row, err)
		}
		y[row] = int(v)
	}
	ds := model.Dataset{X: x, Y: y}
	return ds, ds.Validate()
}

func number(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case nil:
		return 0, fmt.Errorf("missing value: %w", model.InvalidDatasetErr)
	default:
		return 0, fmt.Errorf("non numeric value '%v': %w", v, model.InvalidDatasetErr)
	}
}
