package ml

import (
	"math"

	"github.com/drakos74/astroturf/internal/model"
	"golang.org/x/exp/rand"
)

// blobs creates two gaussian clusters around -1 and +1 on every feature.
func blobs(n, dim int, seed uint64) model.Dataset {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		y[i] = i % 2
		center := float64(2*y[i] - 1)
		row := make([]float64, dim)
		for j := range row {
			row[j] = center + rng.NormFloat64()
		}
		x[i] = row
	}
	return model.Dataset{X: x, Y: y}
}

func accuracy(truth, pred []int) float64 {
	var hit float64
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return hit / float64(len(truth))
}

func sums(proba [][]float64) []float64 {
	s := make([]float64, len(proba))
	for i, p := range proba {
		for _, v := range p {
			s[i] += v
		}
		s[i] = math.Round(s[i]*1e6) / 1e6
	}
	return s
}
