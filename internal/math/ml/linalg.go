package ml

import (
	"math"

	"github.com/drakos74/go-ex-machina/xmath"
	"golang.org/x/exp/rand"
)

// probability clipping for the cross entropy loss
const clip = 1e-7

// glorot creates a rows x cols matrix with uniform values in the glorot range.
func glorot(rng *rand.Rand, rows, cols int) xmath.Matrix {
	limit := math.Sqrt(6 / float64(rows+cols))
	m := xmath.Mat(rows).Of(cols)
	for i := range m {
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * limit
		}
	}
	return m
}

// zeros creates a rows x cols matrix of zeros.
func zeros(rows, cols int) xmath.Matrix {
	return xmath.Mat(rows).Of(cols)
}

// tProd multiplies the transpose of m with v, without materialising the transpose.
func tProd(m xmath.Matrix, v xmath.Vector) xmath.Vector {
	if len(m) == 0 {
		return xmath.Vec(0)
	}
	w := xmath.Vec(len(m[0]))
	for i := range m {
		if v[i] == 0 {
			continue
		}
		for j := range m[i] {
			w[j] += m[i][j] * v[i]
		}
	}
	return w
}

// addOuter accumulates the outer product of a and b into m.
func addOuter(m xmath.Matrix, a, b xmath.Vector) {
	for i := range a {
		if a[i] == 0 {
			continue
		}
		for j := range b {
			m[i][j] += a[i] * b[j]
		}
	}
}

// addTo accumulates v into w.
func addTo(w, v xmath.Vector) {
	for i := range v {
		w[i] += v[i]
	}
}

// bce is the binary cross entropy of the probability p for the target t.
func bce(p, t float64) float64 {
	p = xmath.Clip(clip, 1-clip)(p)
	return -(t*math.Log(p) + (1-t)*math.Log(1-p))
}

// bceGrad is the derivative of the binary cross entropy with respect to p.
func bceGrad(p, t float64) float64 {
	p = xmath.Clip(clip, 1-clip)(p)
	return -t/p + (1-t)/(1-p)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// logistic turns a raw score into a probability pair.
func logistic(x float64) []float64 {
	p := sigmoid(x)
	return []float64{1 - p, p}
}
