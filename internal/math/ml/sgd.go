package ml

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io/ioutil"
	"math"

	"github.com/cdipaolo/goml/base"
	gomllinear "github.com/cdipaolo/goml/linear"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// SGDConfig holds the parameters of the stochastic gradient logistic model.
type SGDConfig struct {
	Alpha          float64 `json:"alpha" yaml:"alpha"`
	Regularization float64 `json:"regularization" yaml:"regularization"`
	MaxIterations  int     `json:"max_iterations" yaml:"max_iterations"`
	// ValidationFraction is the share of the train set held out to monitor the loss.
	ValidationFraction float64 `json:"validation_fraction" yaml:"validation_fraction"`
	// NoChange is the number of rounds without improvement before stopping.
	NoChange  int     `json:"no_change" yaml:"no_change"`
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
	Seed      uint64  `json:"seed" yaml:"seed"`
}

// DefaultSGDConfig returns the standard parameters.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{
		Alpha:              0.01,
		Regularization:     0.0001,
		MaxIterations:      10000,
		ValidationFraction: 0.1,
		NoChange:           5,
		Tolerance:          1e-3,
		Seed:               1,
	}
}

// SGD is a logistic regression fitted with stochastic gradient ascent.
type SGD struct {
	cfg        SGDConfig
	dim        int
	iterations int
	model      *gomllinear.Logistic
}

// NewSGD creates a new stochastic gradient logistic model.
func NewSGD(cfg SGDConfig) *SGD {
	return &SGD{cfg: cfg}
}

func (s *SGD) newModel(x [][]float64, y []float64, dim int) *gomllinear.Logistic {
	m := gomllinear.NewLogistic(base.StochasticGA, s.cfg.Alpha, s.cfg.Regularization, 1, x, y, dim)
	m.Output = ioutil.Discard
	return m
}

// Fit trains the model one pass at a time, holding out a validation slice for early stopping.
// Only binary labels are supported.
func (s *SGD) Fit(x [][]float64, y []int) error {
	dim, err := checkFit(x, y)
	if err != nil {
		return err
	}
	target := make([]float64, len(y))
	for i, l := range y {
		if l != 0 && l != 1 {
			return fmt.Errorf("label %d is not binary: %w", l, ShapeErr)
		}
		target[i] = float64(l)
	}

	rng := rand.New(rand.NewSource(s.cfg.Seed))
	perm := rng.Perm(len(x))
	nVal := int(math.Ceil(s.cfg.ValidationFraction * float64(len(x))))
	if nVal >= len(x) {
		nVal = 0
	}
	valX, valY := pick(x, target, perm[:nVal])
	trainX, trainY := pick(x, target, perm[nVal:])

	params := make([]float64, dim+1)
	best := math.Inf(1)
	var wait int
	s.iterations = 0
	for s.iterations < s.cfg.MaxIterations {
		rng.Shuffle(len(trainX), func(i, j int) {
			trainX[i], trainX[j] = trainX[j], trainX[i]
			trainY[i], trainY[j] = trainY[j], trainY[i]
		})
		m := s.newModel(trainX, trainY, dim)
		m.Parameters = params
		if err := m.Learn(); err != nil {
			return fmt.Errorf("could not learn sgd model: %w", err)
		}
		params = m.Parameters
		s.iterations++
		if nVal == 0 {
			continue
		}
		loss := logLoss(params, valX, valY)
		if loss < best-s.cfg.Tolerance {
			best = loss
			wait = 0
		} else {
			wait++
		}
		if wait >= s.cfg.NoChange {
			break
		}
	}
	s.dim = dim
	s.model = s.newModel(nil, nil, dim)
	s.model.Parameters = params
	log.Debug().
		Int("iterations", s.iterations).
		Float64("val_loss", best).
		Int("dim", dim).
		Msg("sgd fitted")
	return nil
}

func pick(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	px := make([][]float64, len(idx))
	py := make([]float64, len(idx))
	for i, j := range idx {
		px[i] = x[j]
		py[i] = y[j]
	}
	return px, py
}

// logLoss is the mean logistic loss of the linear model with the given params.
// params[0] is the intercept.
func logLoss(params []float64, x [][]float64, y []float64) float64 {
	var loss float64
	for i, row := range x {
		z := params[0]
		for j, v := range row {
			z += params[j+1] * v
		}
		loss += bce(sigmoid(z), y[i])
	}
	return loss / float64(len(x))
}

// Iterations returns the number of passes over the data of the last fit.
func (s *SGD) Iterations() int {
	return s.iterations
}

// PredictProba returns the probability pair of every row.
func (s *SGD) PredictProba(x [][]float64) ([][]float64, error) {
	if s.model == nil {
		return nil, NotTrainedErr
	}
	if err := checkInput(x, s.dim); err != nil {
		return nil, err
	}
	proba := make([][]float64, len(x))
	for i, row := range x {
		p, err := s.model.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("could not predict row %d: %w", i, err)
		}
		proba[i] = []float64{1 - p[0], p[0]}
	}
	return proba, nil
}

// Predict returns the most likely label of every row.
func (s *SGD) Predict(x [][]float64) ([]int, error) {
	proba, err := s.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return Argmax(proba), nil
}

type sgdState struct {
	Config     SGDConfig
	Dim        int
	Iterations int
	Parameters []float64
}

// MarshalBinary encodes the fitted parameters.
func (s *SGD) MarshalBinary() ([]byte, error) {
	if s.model == nil {
		return nil, NotTrainedErr
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(sgdState{
		Config:     s.cfg,
		Dim:        s.dim,
		Iterations: s.iterations,
		Parameters: s.model.Parameters,
	})
	return buf.Bytes(), err
}

// UnmarshalBinary restores the fitted parameters.
func (s *SGD) UnmarshalBinary(data []byte) error {
	var state sgdState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	if len(state.Parameters) != state.Dim+1 {
		return fmt.Errorf("%d parameters for dimension %d: %w", len(state.Parameters), state.Dim, ShapeErr)
	}
	s.cfg = state.Config
	s.dim = state.Dim
	s.iterations = state.Iterations
	s.model = s.newModel(nil, nil, state.Dim)
	s.model.Parameters = state.Parameters
	return nil
}
