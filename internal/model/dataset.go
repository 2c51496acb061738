package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

var (
	// InvalidDatasetErr is returned for datasets breaking the shape invariants.
	InvalidDatasetErr = errors.New("invalid dataset")
)

// Dataset is the feature matrix and label vector consumed by the registries.
// X is row-major with a constant number of columns, Y holds one class label per row.
type Dataset struct {
	X [][]float64 `json:"x"`
	Y []int       `json:"y"`
}

// NewDataset creates a dataset and checks its invariants.
func NewDataset(x [][]float64, y []int) (Dataset, error) {
	ds := Dataset{X: x, Y: y}
	return ds, ds.Validate()
}

// Validate checks that rows and labels align and all rows share the same dimension.
func (d Dataset) Validate() error {
	if len(d.X) == 0 {
		return fmt.Errorf("empty feature matrix: %w", InvalidDatasetErr)
	}
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("%d rows vs %d labels: %w", len(d.X), len(d.Y), InvalidDatasetErr)
	}
	dim := len(d.X[0])
	if dim == 0 {
		return fmt.Errorf("zero feature columns: %w", InvalidDatasetErr)
	}
	for i, row := range d.X {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d columns instead of %d: %w", i, len(row), dim, InvalidDatasetErr)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("row %d carries a non-finite value: %w", i, InvalidDatasetErr)
			}
		}
	}
	for i, y := range d.Y {
		if y < 0 {
			return fmt.Errorf("negative label %d at row %d: %w", y, i, InvalidDatasetErr)
		}
	}
	return nil
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.X)
}

// Dim returns the number of feature columns.
func (d Dataset) Dim() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// Classes returns the number of classes, assuming labels are 0..n-1.
func (d Dataset) Classes() int {
	max := -1
	for _, y := range d.Y {
		if y > max {
			max = y
		}
	}
	return max + 1
}

// Counts returns the number of rows per label.
func (d Dataset) Counts() map[int]int {
	counts := make(map[int]int)
	for _, y := range d.Y {
		counts[y]++
	}
	return counts
}

// Subset returns the rows at the given indices.
// Rows are shared with the parent dataset and must not be mutated.
func (d Dataset) Subset(idx []int) Dataset {
	x := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for i, j := range idx {
		x[i] = d.X[j]
		y[i] = d.Y[j]
	}
	return Dataset{X: x, Y: y}
}

// Split shuffles the rows and splits them into a train and a test part.
// fraction is the share of rows that goes to the test part.
func (d Dataset) Split(fraction float64, rng *rand.Rand) (train Dataset, test Dataset, err error) {
	n := d.Len()
	if fraction <= 0 || fraction >= 1 {
		return train, test, fmt.Errorf("test fraction %.2f out of (0,1): %w", fraction, InvalidDatasetErr)
	}
	nTest := int(math.Ceil(fraction * float64(n)))
	if nTest < 1 || nTest >= n {
		return train, test, fmt.Errorf("cannot split %d rows with fraction %.2f: %w", n, fraction, InvalidDatasetErr)
	}
	perm := rng.Perm(n)
	return d.Subset(perm[nTest:]), d.Subset(perm[:nTest]), nil
}

// StratifiedFolds assigns every row to one of k folds, keeping the class balance of each fold
// close to the one of the whole set. The assignment is shuffled with the given seed.
// It returns the test indices of each fold.
func (d Dataset) StratifiedFolds(k int, seed uint64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d: %w", k, InvalidDatasetErr)
	}
	if d.Len() < k {
		return nil, fmt.Errorf("cannot create %d folds out of %d rows: %w", k, d.Len(), InvalidDatasetErr)
	}
	rng := rand.New(rand.NewSource(seed))
	byClass := make(map[int][]int)
	classes := make([]int, 0)
	for i, y := range d.Y {
		if _, ok := byClass[y]; !ok {
			classes = append(classes, y)
		}
		byClass[y] = append(byClass[y], i)
	}
	sort.Ints(classes)
	folds := make([][]int, k)
	// continue the round-robin across classes so that small classes do not all land in fold 0
	next := 0
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})
		for _, row := range rows {
			folds[next%k] = append(folds[next%k], row)
			next++
		}
	}
	for i := range folds {
		sort.Ints(folds[i])
	}
	return folds, nil
}
