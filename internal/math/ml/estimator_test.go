package ml

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimators(t *testing.T) {

	type testCase struct {
		estimator func() Estimator
		accuracy  float64
	}

	tests := map[string]testCase{
		"sgd": {
			estimator: func() Estimator {
				return NewSGD(DefaultSGDConfig())
			},
			accuracy: 0.9,
		},
		"bayes": {
			estimator: func() Estimator {
				return NewBayes(1e-9)
			},
			accuracy: 0.9,
		},
		"forest": {
			estimator: func() Estimator {
				return NewForest(20)
			},
			accuracy: 0.85,
		},
		"svm": {
			estimator: func() Estimator {
				cfg := DefaultSVMConfig()
				cfg.MaxIterations = 2000
				return NewSVM(cfg)
			},
			accuracy: 0.9,
		},
	}

	train := blobs(300, 5, 1)
	test := blobs(100, 5, 2)

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := tt.estimator()

			_, err := e.Predict(test.X)
			assert.True(t, errors.Is(err, NotTrainedErr))
			_, err = e.MarshalBinary()
			assert.True(t, errors.Is(err, NotTrainedErr))

			require.NoError(t, e.Fit(train.X, train.Y))

			pred, err := e.Predict(test.X)
			require.NoError(t, err)
			acc := accuracy(test.Y, pred)
			fmt.Printf("%s accuracy = %+v\n", name, acc)
			assert.GreaterOrEqual(t, acc, tt.accuracy)

			proba, err := e.PredictProba(test.X)
			require.NoError(t, err)
			require.Len(t, proba, len(test.X))
			for i, s := range sums(proba) {
				assert.Len(t, proba[i], 2)
				assert.Equal(t, 1.0, s)
			}

			_, err = e.Predict([][]float64{{1, 2}})
			assert.True(t, errors.Is(err, ShapeErr))

			data, err := e.MarshalBinary()
			require.NoError(t, err)
			restored := tt.estimator()
			require.NoError(t, restored.UnmarshalBinary(data))
			again, err := restored.Predict(test.X)
			require.NoError(t, err)
			assert.Equal(t, pred, again)
			againProba, err := restored.PredictProba(test.X)
			require.NoError(t, err)
			assert.Equal(t, proba, againProba)
		})
	}
}

func TestEstimators_Corrupt(t *testing.T) {
	for name, e := range map[string]Estimator{
		"sgd":    NewSGD(DefaultSGDConfig()),
		"bayes":  NewBayes(1e-9),
		"forest": NewForest(10),
		"svm":    NewSVM(DefaultSVMConfig()),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, e.UnmarshalBinary([]byte("not a gob stream")))
		})
	}
}

func TestBinaryOnly(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}}
	y := []int{0, 1, 2}
	assert.True(t, errors.Is(NewSGD(DefaultSGDConfig()).Fit(x, y), ShapeErr))
	assert.True(t, errors.Is(NewSVM(DefaultSVMConfig()).Fit(x, y), ShapeErr))
	// bayes handles any number of classes
	b := NewBayes(1e-9)
	require.NoError(t, b.Fit(x, y))
	proba, err := b.PredictProba(x)
	require.NoError(t, err)
	assert.Len(t, proba[0], 3)
}

func TestPlatt(t *testing.T) {
	f := []float64{-2, -1.5, -1, -0.5, 0.5, 1, 1.5, 2}
	y := []int{0, 0, 0, 1, 0, 1, 1, 1}
	a, b := platt(f, y)
	// the positive class must get higher probabilities for higher margins
	assert.Less(t, a, 0.0)
	lo := logistic(-(a*f[0] + b))[1]
	hi := logistic(-(a*f[7] + b))[1]
	assert.Less(t, lo, 0.5)
	assert.Greater(t, hi, 0.5)
}
