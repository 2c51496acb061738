package dataset

import (
	"github.com/drakos74/astroturf/internal/model"
	"golang.org/x/exp/rand"
)

// Blobs generates a balanced binary dataset of n rows.
// Every feature of class 1 is drawn around +separation/2 and of class 0 around -separation/2, with unit variance.
func Blobs(n, dim int, separation float64, seed uint64) model.Dataset {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		y[i] = i % 2
		center := separation * (float64(y[i]) - 0.5)
		row := make([]float64, dim)
		for j := range row {
			row[j] = center + rng.NormFloat64()
		}
		x[i] = row
	}
	return model.Dataset{X: x, Y: y}
}

// Noise generates n rows of pure noise with random balanced labels.
func Noise(n, dim int, seed uint64) model.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := Blobs(n, dim, 0, seed)
	rng.Shuffle(len(ds.Y), func(i, j int) {
		ds.Y[i], ds.Y[j] = ds.Y[j], ds.Y[i]
	})
	return ds
}
