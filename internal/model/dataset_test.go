package model

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newBalanced(n, dim int) Dataset {
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		row := make([]float64, dim)
		for j := range row {
			row[j] = float64(i*dim + j)
		}
		x[i] = row
		y[i] = i % 2
	}
	return Dataset{X: x, Y: y}
}

func TestDataset_Validate(t *testing.T) {

	type test struct {
		ds  Dataset
		err bool
	}

	tests := map[string]test{
		"valid": {
			ds: newBalanced(10, 3),
		},
		"empty": {
			ds:  Dataset{},
			err: true,
		},
		"misaligned": {
			ds:  Dataset{X: [][]float64{{1}, {2}}, Y: []int{0}},
			err: true,
		},
		"ragged": {
			ds:  Dataset{X: [][]float64{{1, 2}, {2}}, Y: []int{0, 1}},
			err: true,
		},
		"nan": {
			ds:  Dataset{X: [][]float64{{1, math.NaN()}, {2, 3}}, Y: []int{0, 1}},
			err: true,
		},
		"negative-label": {
			ds:  Dataset{X: [][]float64{{1}, {2}}, Y: []int{0, -1}},
			err: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.ds.Validate()
			if tt.err {
				assert.True(t, errors.Is(err, InvalidDatasetErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDataset_Split(t *testing.T) {
	ds := newBalanced(100, 2)
	train, test, err := ds.Split(0.25, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 75, train.Len())
	assert.Equal(t, 25, test.Len())

	// every row ends up in exactly one side
	seen := make(map[float64]int)
	for _, row := range append(train.X, test.X...) {
		seen[row[0]]++
	}
	assert.Len(t, seen, 100)
	for k, c := range seen {
		assert.Equal(t, 1, c, fmt.Sprintf("row %v", k))
	}

	_, _, err = ds.Split(1, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, InvalidDatasetErr))
	_, _, err = newBalanced(1, 2).Split(0.5, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, InvalidDatasetErr))
}

func TestDataset_StratifiedFolds(t *testing.T) {
	ds := newBalanced(1000, 2)
	folds, err := ds.StratifiedFolds(10, 1)
	require.NoError(t, err)
	require.Len(t, folds, 10)

	covered := make(map[int]bool)
	for i, fold := range folds {
		assert.Len(t, fold, 100)
		counts := ds.Subset(fold).Counts()
		assert.Equal(t, 50, counts[0], fmt.Sprintf("fold %d", i))
		assert.Equal(t, 50, counts[1], fmt.Sprintf("fold %d", i))
		for _, row := range fold {
			assert.False(t, covered[row])
			covered[row] = true
		}
	}
	assert.Len(t, covered, 1000)

	again, err := ds.StratifiedFolds(10, 1)
	require.NoError(t, err)
	assert.Equal(t, folds, again)

	_, err = ds.StratifiedFolds(1, 1)
	assert.True(t, errors.Is(err, InvalidDatasetErr))
	_, err = newBalanced(5, 2).StratifiedFolds(10, 1)
	assert.True(t, errors.Is(err, InvalidDatasetErr))
}

func TestDataset_Classes(t *testing.T) {
	ds := Dataset{X: [][]float64{{1}, {2}, {3}}, Y: []int{0, 2, 2}}
	assert.Equal(t, 3, ds.Classes())
	assert.Equal(t, map[int]int{0: 1, 2: 2}, ds.Counts())
	assert.Equal(t, 1, ds.Dim())
}
