package ml

import (
	"math"

	xml "github.com/drakos74/go-ex-machina/xmachina/ml"
)

// activations are expressed in terms of their output, as for the xmachina ones.
var activations = map[string]xml.Activation{
	"sigmoid": xml.Sigmoid,
	"tanh":    xml.TanH,
	"relu":    relu{},
	"linear":  linear{},
}

type relu struct {
}

func (r relu) F(x float64) float64 {
	return math.Max(0, x)
}

func (r relu) D(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

type linear struct {
}

func (l linear) F(x float64) float64 {
	return x
}

func (l linear) D(y float64) float64 {
	return 1
}
