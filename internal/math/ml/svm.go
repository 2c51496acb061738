package ml

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"github.com/drakos74/astroturf/internal/buffer"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// SVMConfig holds the parameters of the kernel svm.
type SVMConfig struct {
	Nu            float64 `json:"nu" yaml:"nu"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	// Gamma is the rbf kernel coefficient, 0 derives it from the data scale.
	Gamma float64 `json:"gamma" yaml:"gamma"`
	Seed  uint64  `json:"seed" yaml:"seed"`
}

// DefaultSVMConfig returns the standard parameters.
func DefaultSVMConfig() SVMConfig {
	return SVMConfig{
		Nu:            0.5,
		MaxIterations: 10000,
		Seed:          1,
	}
}

// SVM is a binary rbf kernel support vector machine trained with the kernelised pegasos solver.
// Probabilities are calibrated with platt scaling on the training decision values.
type SVM struct {
	cfg    SVMConfig
	dim    int
	gamma  float64
	lambda float64
	// support vectors with their signed weights
	support [][]float64
	weights []float64
	// platt parameters
	a, b float64
}

// NewSVM creates a kernel svm.
func NewSVM(cfg SVMConfig) *SVM {
	return &SVM{cfg: cfg}
}

func (s *SVM) kernel(u, v []float64) float64 {
	d := floats.Distance(u, v, 2)
	return math.Exp(-s.gamma * d * d)
}

// Fit trains the svm on binary labels.
func (s *SVM) Fit(x [][]float64, y []int) error {
	dim, err := checkFit(x, y)
	if err != nil {
		return err
	}
	n := len(x)
	sign := make([]float64, n)
	for i, l := range y {
		switch l {
		case 0:
			sign[i] = -1
		case 1:
			sign[i] = 1
		default:
			return fmt.Errorf("label %d is not binary: %w", l, ShapeErr)
		}
	}

	s.dim = dim
	s.gamma = s.cfg.Gamma
	if s.gamma <= 0 {
		stats := buffer.NewStats()
		for _, row := range x {
			for _, v := range row {
				stats.Push(v)
			}
		}
		variance := stats.Variance()
		if variance == 0 {
			variance = 1
		}
		s.gamma = 1 / (float64(dim) * variance)
	}
	s.lambda = 1 / (s.cfg.Nu * float64(n))

	// alpha counts how often each sample violated the margin
	alpha := make([]float64, n)
	active := make([]int, 0)
	rng := rand.New(rand.NewSource(s.cfg.Seed))
	for t := 1; t <= s.cfg.MaxIterations; t++ {
		i := rng.Intn(n)
		var f float64
		for _, j := range active {
			f += alpha[j] * sign[j] * s.kernel(x[j], x[i])
		}
		f /= s.lambda * float64(t)
		if sign[i]*f < 1 {
			if alpha[i] == 0 {
				active = append(active, i)
			}
			alpha[i]++
		}
	}

	scale := 1 / (s.lambda * float64(s.cfg.MaxIterations))
	s.support = make([][]float64, 0, len(active))
	s.weights = make([]float64, 0, len(active))
	for _, j := range active {
		s.support = append(s.support, x[j])
		s.weights = append(s.weights, alpha[j]*sign[j]*scale)
	}

	decisions := make([]float64, n)
	for i, row := range x {
		decisions[i] = s.decision(row)
	}
	s.a, s.b = platt(decisions, y)
	log.Debug().
		Int("support", len(s.support)).
		Float64("gamma", s.gamma).
		Float64("lambda", s.lambda).
		Float64("platt_a", s.a).
		Float64("platt_b", s.b).
		Msg("svm fitted")
	return nil
}

func (s *SVM) decision(row []float64) float64 {
	var f float64
	for j, sv := range s.support {
		f += s.weights[j] * s.kernel(sv, row)
	}
	return f
}

// Decision returns the raw margin of every row.
func (s *SVM) Decision(x [][]float64) ([]float64, error) {
	if s.weights == nil {
		return nil, NotTrainedErr
	}
	if err := checkInput(x, s.dim); err != nil {
		return nil, err
	}
	f := make([]float64, len(x))
	for i, row := range x {
		f[i] = s.decision(row)
	}
	return f, nil
}

// PredictProba returns the calibrated probability pair of every row.
func (s *SVM) PredictProba(x [][]float64) ([][]float64, error) {
	f, err := s.Decision(x)
	if err != nil {
		return nil, err
	}
	proba := make([][]float64, len(f))
	for i, v := range f {
		proba[i] = logistic(-(s.a*v + s.b))
	}
	return proba, nil
}

// Predict returns the side of the margin of every row.
func (s *SVM) Predict(x [][]float64) ([]int, error) {
	f, err := s.Decision(x)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(f))
	for i, v := range f {
		if v > 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// platt fits the sigmoid 1/(1+exp(a*f+b)) to the decision values with newton's method
// on regularised targets.
func platt(f []float64, y []int) (float64, float64) {
	var prior1, prior0 float64
	for _, l := range y {
		if l == 1 {
			prior1++
		} else {
			prior0++
		}
	}
	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	t := make([]float64, len(f))
	for i, l := range y {
		if l == 1 {
			t[i] = hiTarget
		} else {
			t[i] = loTarget
		}
	}

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)
	a := 0.0
	b := math.Log((prior0 + 1) / (prior1 + 1))
	objective := func(a, b float64) float64 {
		var fval float64
		for i := range f {
			fApB := f[i]*a + b
			if fApB >= 0 {
				fval += t[i]*fApB + math.Log(1+math.Exp(-fApB))
			} else {
				fval += (t[i]-1)*fApB + math.Log(1+math.Exp(fApB))
			}
		}
		return fval
	}
	fval := objective(a, b)
	for it := 0; it < maxIter; it++ {
		h11, h22, h21 := sigma, sigma, 0.0
		g1, g2 := 0.0, 0.0
		for i := range f {
			fApB := f[i]*a + b
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1 + math.Exp(-fApB))
				q = 1 / (1 + math.Exp(-fApB))
			} else {
				p = 1 / (1 + math.Exp(fApB))
				q = math.Exp(fApB) / (1 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += f[i] * f[i] * d2
			h22 += d2
			h21 += f[i] * d2
			d1 := t[i] - p
			g1 += f[i] * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}
		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB
		step := 1.0
		for step >= minStep {
			newA := a + step*dA
			newB := b + step*dB
			newF := objective(newA, newB)
			if newF < fval+0.0001*step*gd {
				a, b, fval = newA, newB, newF
				break
			}
			step /= 2
		}
		if step < minStep {
			break
		}
	}
	return a, b
}

type svmState struct {
	Config  SVMConfig
	Dim     int
	Gamma   float64
	Lambda  float64
	Support [][]float64
	Weights []float64
	A, B    float64
}

// MarshalBinary encodes the support vectors and the calibration.
func (s *SVM) MarshalBinary() ([]byte, error) {
	if s.weights == nil {
		return nil, NotTrainedErr
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(svmState{
		Config:  s.cfg,
		Dim:     s.dim,
		Gamma:   s.gamma,
		Lambda:  s.lambda,
		Support: s.support,
		Weights: s.weights,
		A:       s.a,
		B:       s.b,
	})
	return buf.Bytes(), err
}

// UnmarshalBinary restores the support vectors and the calibration.
func (s *SVM) UnmarshalBinary(data []byte) error {
	var state svmState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	if len(state.Support) != len(state.Weights) {
		return fmt.Errorf("%d support vectors vs %d weights: %w", len(state.Support), len(state.Weights), ShapeErr)
	}
	s.cfg = state.Config
	s.dim = state.Dim
	s.gamma = state.Gamma
	s.lambda = state.Lambda
	s.support = state.Support
	s.weights = state.Weights
	if s.weights == nil {
		s.weights = make([]float64, 0)
	}
	s.a = state.A
	s.b = state.B
	return nil
}
