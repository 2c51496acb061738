package ml

import (
	"fmt"

	"github.com/drakos74/go-ex-machina/xmath"
	"golang.org/x/exp/rand"
)

// lstmStep keeps the intermediate values of one time step.
type lstmStep struct {
	x, hPrev, cPrev  xmath.Vector
	i, f, g, o, c, t xmath.Vector
}

// lstm is a single direction long short-term memory layer
// returning the hidden state after the last step.
// Gates are stacked in the order input, forget, cell, output.
type lstm struct {
	name    string
	in      int
	units   int
	reverse bool
	w       *param
	u       *param
	b       *param
	steps   []lstmStep
}

func newLSTM(name string, rng *rand.Rand, in, units int, reverse bool) *lstm {
	b := zeros(1, 4*units)
	// forget gate bias starts at 1
	for j := units; j < 2*units; j++ {
		b[0][j] = 1
	}
	return &lstm{
		name:    name,
		in:      in,
		units:   units,
		reverse: reverse,
		w:       newParam(name+".w", glorot(rng, 4*units, in)),
		u:       newParam(name+".u", glorot(rng, 4*units, units)),
		b:       newParam(name+".b", b),
	}
}

func (l *lstm) run(seq []xmath.Vector) xmath.Vector {
	n := l.units
	h := xmath.Vec(n)
	c := xmath.Vec(n)
	l.steps = l.steps[:0]
	for s := range seq {
		x := seq[s]
		if l.reverse {
			x = seq[len(seq)-1-s]
		}
		z := l.w.value.Prod(x).Add(l.u.value.Prod(h)).Add(l.b.value[0])
		step := lstmStep{
			x:     x,
			hPrev: h,
			cPrev: c,
			i:     z[0:n].Op(sigmoid),
			f:     z[n : 2*n].Op(sigmoid),
			g:     z[2*n : 3*n].Op(activations["tanh"].F),
			o:     z[3*n : 4*n].Op(sigmoid),
		}
		step.c = step.f.X(c).Add(step.i.X(step.g))
		step.t = step.c.Op(activations["tanh"].F)
		h = step.o.X(step.t)
		c = step.c
		l.steps = append(l.steps, step)
	}
	return h
}

// back propagates the gradient of the final hidden state through time.
// It returns the input gradients in sequence order.
func (l *lstm) back(dh xmath.Vector) []xmath.Vector {
	n := l.units
	dxs := make([]xmath.Vector, len(l.steps))
	dc := xmath.Vec(n)
	for s := len(l.steps) - 1; s >= 0; s-- {
		step := l.steps[s]
		dz := xmath.Vec(4 * n)
		dcPrev := xmath.Vec(n)
		for j := 0; j < n; j++ {
			do := dh[j] * step.t[j]
			dcj := dc[j] + dh[j]*step.o[j]*(1-step.t[j]*step.t[j])
			di := dcj * step.g[j]
			dg := dcj * step.i[j]
			df := dcj * step.cPrev[j]
			dcPrev[j] = dcj * step.f[j]
			dz[j] = di * step.i[j] * (1 - step.i[j])
			dz[n+j] = df * step.f[j] * (1 - step.f[j])
			dz[2*n+j] = dg * (1 - step.g[j]*step.g[j])
			dz[3*n+j] = do * step.o[j] * (1 - step.o[j])
		}
		addOuter(l.w.grad, dz, step.x)
		addOuter(l.u.grad, dz, step.hPrev)
		addTo(l.b.grad[0], dz)
		idx := s
		if l.reverse {
			idx = len(l.steps) - 1 - s
		}
		dxs[idx] = tProd(l.w.value, dz)
		dh = tProd(l.u.value, dz)
		dc = dcPrev
	}
	return dxs
}

func (l *lstm) params() []*param {
	return []*param{l.w, l.u, l.b}
}

// bidirectional runs two lstm layers over the sequence in opposite directions
// and concatenates their final hidden states.
// The flat input is reshaped into timesteps of equal width.
type bidirectional struct {
	in        int
	timesteps int
	fwd       *lstm
	bwd       *lstm
}

func newBidirectional(rng *rand.Rand, in, timesteps, units int) *bidirectional {
	width := in / timesteps
	return &bidirectional{
		in:        in,
		timesteps: timesteps,
		fwd:       newLSTM("lstm.fwd", rng, width, units, false),
		bwd:       newLSTM("lstm.bwd", rng, width, units, true),
	}
}

func (b *bidirectional) sequence(x xmath.Vector) []xmath.Vector {
	width := b.in / b.timesteps
	seq := make([]xmath.Vector, b.timesteps)
	for s := range seq {
		seq[s] = x[s*width : (s+1)*width]
	}
	return seq
}

func (b *bidirectional) forward(x xmath.Vector, train bool) xmath.Vector {
	seq := b.sequence(x)
	return b.fwd.run(seq).Stack(b.bwd.run(seq))
}

func (b *bidirectional) backward(dy xmath.Vector) xmath.Vector {
	n := b.fwd.units
	dFwd := b.fwd.back(dy[:n])
	dBwd := b.bwd.back(dy[n:])
	dx := xmath.Vec(0)
	for s := range dFwd {
		dx = append(dx, dFwd[s].Add(dBwd[s])...)
	}
	return dx
}

func (b *bidirectional) params() []*param {
	return append(b.fwd.params(), b.bwd.params()...)
}

func (b *bidirectional) size() (int, int) {
	return b.in, 2 * b.fwd.units
}

func (b *bidirectional) kind() string {
	return fmt.Sprintf("bilstm(%d,%d)", b.fwd.units, b.timesteps)
}

// NewBiLSTM creates the bidirectional recurrent network for the given input size.
func NewBiLSTM(input int, arch Architecture, seed uint64) (*Sequential, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	if input%arch.Timesteps != 0 {
		return nil, fmt.Errorf("input size %d not divisible into %d timesteps: %w", input, arch.Timesteps, ShapeErr)
	}
	rng := rand.New(rand.NewSource(seed))
	return newSequential(LSTMKind, input, arch, rng,
		newBidirectional(rng, input, arch.Timesteps, arch.Units),
		newDropout(rng, 2*arch.Units, arch.RecurrentDropout),
		newDense("hidden", rng, 2*arch.Units, arch.Hidden, "relu"),
		newDense("output", rng, arch.Hidden, 1, "sigmoid"),
	), nil
}
