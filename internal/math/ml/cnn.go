package ml

import (
	"fmt"

	"github.com/drakos74/go-ex-machina/xmath"
	"golang.org/x/exp/rand"
)

// convPool is a single channel 1D convolution with relu activation,
// followed by a global max pooling over the filters at every position.
// The output has one value per kernel position.
type convPool struct {
	in      int
	filters int
	kernel  int
	w       *param
	b       *param
	x       xmath.Vector
	// filter holding the max activation per position, -1 if no filter is active
	argmax []int
}

func newConvPool(rng *rand.Rand, in, filters, kernel int) *convPool {
	return &convPool{
		in:      in,
		filters: filters,
		kernel:  kernel,
		w:       newParam("conv.w", glorot(rng, filters, kernel)),
		b:       newParam("conv.b", zeros(1, filters)),
		argmax:  make([]int, in-kernel+1),
	}
}

func (c *convPool) positions() int {
	return c.in - c.kernel + 1
}

func (c *convPool) forward(x xmath.Vector, train bool) xmath.Vector {
	c.x = x
	y := xmath.Vec(c.positions())
	for p := range y {
		c.argmax[p] = -1
		for f := 0; f < c.filters; f++ {
			z := c.b.value[0][f]
			for k := 0; k < c.kernel; k++ {
				z += c.w.value[f][k] * x[p+k]
			}
			// relu output is never negative, so a position without active filters pools to 0
			if z > y[p] {
				y[p] = z
				c.argmax[p] = f
			}
		}
	}
	return y
}

func (c *convPool) backward(dy xmath.Vector) xmath.Vector {
	dx := xmath.Vec(c.in)
	for p := range dy {
		f := c.argmax[p]
		if f < 0 || dy[p] == 0 {
			continue
		}
		for k := 0; k < c.kernel; k++ {
			c.w.grad[f][k] += dy[p] * c.x[p+k]
			dx[p+k] += dy[p] * c.w.value[f][k]
		}
		c.b.grad[0][f] += dy[p]
	}
	return dx
}

func (c *convPool) params() []*param {
	return []*param{c.w, c.b}
}

func (c *convPool) size() (int, int) {
	return c.in, c.positions()
}

func (c *convPool) kind() string {
	return fmt.Sprintf("conv1d(%d,%d)+maxpool", c.filters, c.kernel)
}

// NewCNN creates the convolutional network for the given input size.
func NewCNN(input int, arch Architecture, seed uint64) (*Sequential, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	if input < arch.Kernel {
		return nil, fmt.Errorf("input size %d smaller than kernel %d: %w", input, arch.Kernel, ShapeErr)
	}
	rng := rand.New(rand.NewSource(seed))
	return newSequential(CNNKind, input, arch, rng,
		newConvPool(rng, input, arch.Filters, arch.Kernel),
		newDense("dense", rng, input-arch.Kernel+1, arch.Dense, "linear"),
		newDropout(rng, arch.Dense, arch.ConvDropout),
		newDense("hidden", rng, arch.Dense, arch.Hidden, "relu"),
		newDense("output", rng, arch.Hidden, 1, "sigmoid"),
	), nil
}
