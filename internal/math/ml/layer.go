package ml

import (
	"fmt"
	"math"

	xml "github.com/drakos74/go-ex-machina/xmachina/ml"
	"github.com/drakos74/go-ex-machina/xmath"
	"golang.org/x/exp/rand"
)

// param is a trainable block of weights with its accumulated gradient.
type param struct {
	name  string
	value xmath.Matrix
	grad  xmath.Matrix
	// adam moments
	m, v xmath.Matrix
}

func newParam(name string, value xmath.Matrix) *param {
	rows, cols := len(value), 0
	if rows > 0 {
		cols = len(value[0])
	}
	return &param{
		name:  name,
		value: value,
		grad:  zeros(rows, cols),
		m:     zeros(rows, cols),
		v:     zeros(rows, cols),
	}
}

func (p *param) size() int {
	if len(p.value) == 0 {
		return 0
	}
	return len(p.value) * len(p.value[0])
}

func (p *param) zeroGrad() {
	for i := range p.grad {
		for j := range p.grad[i] {
			p.grad[i][j] = 0
		}
	}
}

// load copies the given values into the param, checking the shape.
func (p *param) load(value xmath.Matrix) error {
	if len(value) != len(p.value) {
		return fmt.Errorf("param %s has %d rows instead of %d: %w", p.name, len(value), len(p.value), ShapeErr)
	}
	for i := range value {
		if len(value[i]) != len(p.value[i]) {
			return fmt.Errorf("param %s row %d has %d columns instead of %d: %w", p.name, i, len(value[i]), len(p.value[i]), ShapeErr)
		}
		copy(p.value[i], value[i])
	}
	return nil
}

// layer is one stage of a sequential network.
// It processes one example at a time and keeps what it needs for the backward pass.
type layer interface {
	// forward computes the output for x.
	forward(x xmath.Vector, train bool) xmath.Vector
	// backward accumulates the param gradients for the output gradient dy and returns the input gradient.
	backward(dy xmath.Vector) xmath.Vector
	params() []*param
	size() (in, out int)
	kind() string
}

type dense struct {
	name  string
	in    int
	out   int
	w     *param
	b     *param
	f     xml.Activation
	fName string
	x     xmath.Vector
	y     xmath.Vector
}

func newDense(name string, rng *rand.Rand, in, out int, activation string) *dense {
	return &dense{
		name:  name,
		in:    in,
		out:   out,
		w:     newParam(name+".w", glorot(rng, out, in)),
		b:     newParam(name+".b", zeros(1, out)),
		f:     activations[activation],
		fName: activation,
	}
}

func (d *dense) forward(x xmath.Vector, train bool) xmath.Vector {
	d.x = x
	d.y = d.w.value.Prod(x).Add(d.b.value[0]).Op(d.f.F)
	return d.y
}

func (d *dense) backward(dy xmath.Vector) xmath.Vector {
	dz := dy.X(d.y.Op(d.f.D))
	addOuter(d.w.grad, dz, d.x)
	addTo(d.b.grad[0], dz)
	return tProd(d.w.value, dz)
}

func (d *dense) params() []*param {
	return []*param{d.w, d.b}
}

func (d *dense) size() (int, int) {
	return d.in, d.out
}

func (d *dense) kind() string {
	return fmt.Sprintf("dense(%s)", d.fName)
}

// dropout zeroes a share of its inputs during training and scales the rest up.
type dropout struct {
	rate float64
	dim  int
	rng  *rand.Rand
	mask xmath.Vector
}

func newDropout(rng *rand.Rand, dim int, rate float64) *dropout {
	return &dropout{
		rate: rate,
		dim:  dim,
		rng:  rng,
	}
}

func (d *dropout) forward(x xmath.Vector, train bool) xmath.Vector {
	if !train || d.rate == 0 {
		d.mask = nil
		return x
	}
	scale := 1 / (1 - d.rate)
	d.mask = xmath.Vec(len(x))
	for i := range d.mask {
		if d.rng.Float64() >= d.rate {
			d.mask[i] = scale
		}
	}
	return x.X(d.mask)
}

func (d *dropout) backward(dy xmath.Vector) xmath.Vector {
	if d.mask == nil {
		return dy
	}
	return dy.X(d.mask)
}

func (d *dropout) params() []*param {
	return nil
}

func (d *dropout) size() (int, int) {
	return d.dim, d.dim
}

func (d *dropout) kind() string {
	return fmt.Sprintf("dropout(%.1f)", d.rate)
}

// adam applies the adam update to a set of params.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
}

func newAdam(lr float64) *adam {
	return &adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-7,
	}
}

// step updates the params with their gradients averaged over the batch and resets the gradients.
func (a *adam) step(params []*param, batch int) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	n := float64(batch)
	for _, p := range params {
		for i := range p.value {
			for j := range p.value[i] {
				g := p.grad[i][j] / n
				p.m[i][j] = a.beta1*p.m[i][j] + (1-a.beta1)*g
				p.v[i][j] = a.beta2*p.v[i][j] + (1-a.beta2)*g*g
				mHat := p.m[i][j] / c1
				vHat := p.v[i][j] / c2
				p.value[i][j] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
			}
		}
		p.zeroGrad()
	}
}
