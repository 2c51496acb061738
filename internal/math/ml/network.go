package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cheggaaa/pb/v3"
	"github.com/drakos74/astroturf/internal/metric"
	"github.com/drakos74/astroturf/internal/model"
	"github.com/drakos74/go-ex-machina/xmath"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const (
	// CNNKind is the kind of the convolutional network.
	CNNKind = "cnn"
	// LSTMKind is the kind of the bidirectional recurrent network.
	LSTMKind = "bilstm"
)

// Architecture holds the layer sizes of the neural networks.
type Architecture struct {
	// Filters is the number of convolution filters.
	Filters int `json:"filters" yaml:"filters"`
	// Kernel is the convolution window.
	Kernel int `json:"kernel" yaml:"kernel"`
	// Dense is the width of the linear layer after pooling.
	Dense       int     `json:"dense" yaml:"dense"`
	ConvDropout float64 `json:"conv_dropout" yaml:"conv_dropout"`
	// Units is the lstm size per direction.
	Units            int     `json:"units" yaml:"units"`
	Timesteps        int     `json:"timesteps" yaml:"timesteps"`
	RecurrentDropout float64 `json:"recurrent_dropout" yaml:"recurrent_dropout"`
	// Hidden is the width of the relu layer before the output.
	Hidden int `json:"hidden" yaml:"hidden"`
}

// DefaultArchitecture returns the standard layer sizes.
// The relu layer is as wide as the batch.
func DefaultArchitecture(batchSize int) Architecture {
	return Architecture{
		Filters:          50,
		Kernel:           2,
		Dense:            128,
		ConvDropout:      0.2,
		Units:            128,
		Timesteps:        1,
		RecurrentDropout: 0.3,
		Hidden:           batchSize,
	}
}

// Validate checks the layer sizes.
func (a Architecture) Validate() error {
	if a.Filters < 1 || a.Kernel < 1 || a.Dense < 1 || a.Units < 1 || a.Timesteps < 1 || a.Hidden < 1 {
		return fmt.Errorf("non positive layer size %+v: %w", a, ShapeErr)
	}
	if a.ConvDropout < 0 || a.ConvDropout >= 1 || a.RecurrentDropout < 0 || a.RecurrentDropout >= 1 {
		return fmt.Errorf("dropout rate out of [0,1) %+v: %w", a, ShapeErr)
	}
	return nil
}

// Sequential is a stack of layers ending in a single sigmoid unit.
type Sequential struct {
	kind      string
	input     int
	arch      Architecture
	layers    []layer
	rng       *rand.Rand
	batchSize int
	trained   bool
}

func newSequential(kind string, input int, arch Architecture, rng *rand.Rand, layers ...layer) *Sequential {
	s := &Sequential{
		kind:      kind,
		input:     input,
		arch:      arch,
		layers:    layers,
		rng:       rng,
		batchSize: arch.Hidden,
	}
	l := log.Info().Str("kind", kind).Int("input", input)
	for i, ly := range layers {
		in, out := ly.size()
		l = l.Str(fmt.Sprintf("%d", i), fmt.Sprintf("%s[%d->%d]", ly.kind(), in, out))
	}
	l.Int("params", s.Params()).Msg("network")
	return s
}

// Kind returns the architecture kind.
func (s *Sequential) Kind() string {
	return s.kind
}

// Params returns the number of trainable parameters.
func (s *Sequential) Params() int {
	var n int
	for _, p := range s.params() {
		n += p.size()
	}
	return n
}

func (s *Sequential) params() []*param {
	pp := make([]*param, 0)
	for _, l := range s.layers {
		pp = append(pp, l.params()...)
	}
	return pp
}

func (s *Sequential) forward(x xmath.Vector, train bool) float64 {
	for _, l := range s.layers {
		x = l.forward(x, train)
	}
	return x[0]
}

func (s *Sequential) backward(dp float64) {
	dy := xmath.Vec(1).With(dp)
	for i := len(s.layers) - 1; i >= 0; i-- {
		dy = s.layers[i].backward(dy)
	}
}

// Train fits the network on the train set, monitoring the loss on the val set after every epoch.
// Training stops early when the validation loss does not improve for cfg.Patience epochs.
// The weights of the last epoch are kept.
func (s *Sequential) Train(ctx context.Context, train, val model.Dataset, cfg TrainingConfig) (model.HistoryFrame, error) {
	history := model.NewHistoryFrame(cfg.Epochs)
	if err := cfg.Validate(); err != nil {
		return history, err
	}
	if err := checkInput(train.X, s.input); err != nil {
		return history, err
	}
	if err := checkInput(val.X, s.input); err != nil {
		return history, err
	}
	if err := checkBinary(train.Y); err != nil {
		return history, err
	}
	if err := checkBinary(val.Y); err != nil {
		return history, err
	}
	if train.Len() == 0 || val.Len() == 0 {
		return history, fmt.Errorf("empty train or validation set: %w", ShapeErr)
	}

	s.batchSize = cfg.BatchSize
	optimizer := newAdam(cfg.LearningRate)
	stopper := NewEarlyStopping(cfg)
	shuffle := rand.New(rand.NewSource(cfg.Seed))
	params := s.params()

	var bar *pb.ProgressBar
	if cfg.Progress {
		bar = pb.StartNew(cfg.Epochs)
		defer bar.Finish()
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		var loss float64
		perm := shuffle.Perm(train.Len())
		for start := 0; start < len(perm); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(perm) {
				end = len(perm)
			}
			for _, i := range perm[start:end] {
				t := float64(train.Y[i])
				p := s.forward(train.X[i], true)
				loss += bce(p, t)
				s.backward(bceGrad(p, t))
			}
			optimizer.step(params, end-start)
		}
		s.trained = true

		e := s.evaluate(val)
		e.Index = epoch
		e.Loss = loss / float64(train.Len())
		history.Push(e)
		log.Debug().
			Str("kind", s.kind).
			Int("epoch", epoch).
			Float64("loss", e.Loss).
			Float64("val_loss", e.ValLoss).
			Float64("accuracy", e.Accuracy).
			Float64("roc_auc", e.ROCAUC).
			Msg("epoch")
		if bar != nil {
			bar.Increment()
		}
		if stopper.Step(e.ValLoss) {
			history.Stopped = true
			log.Info().
				Str("kind", s.kind).
				Int("epoch", epoch).
				Float64("best", stopper.Best()).
				Msg("early stopping")
			break
		}
	}
	return history, nil
}

func (s *Sequential) evaluate(ds model.Dataset) model.Epoch {
	scores := make([]float64, ds.Len())
	labels := make([]int, ds.Len())
	var loss float64
	for i, x := range ds.X {
		p := s.forward(x, false)
		scores[i] = p
		labels[i] = threshold(p)
		loss += bce(p, float64(ds.Y[i]))
	}
	score := metric.Compute(ds.Y, labels, scores)
	return model.Epoch{
		ValLoss:   loss / float64(ds.Len()),
		Accuracy:  score.Accuracy,
		Precision: score.Precision,
		Recall:    score.Recall,
		F1:        score.F1,
		ROCAUC:    score.ROCAUC,
	}
}

// PredictProba returns the probability pair of every row, computed in batches.
func (s *Sequential) PredictProba(x [][]float64) ([][]float64, error) {
	if !s.trained {
		return nil, NotTrainedErr
	}
	if err := checkInput(x, s.input); err != nil {
		return nil, err
	}
	proba := make([][]float64, 0, len(x))
	for start := 0; start < len(x); start += s.batchSize {
		end := start + s.batchSize
		if end > len(x) {
			end = len(x)
		}
		for _, row := range x[start:end] {
			p := s.forward(row, false)
			proba = append(proba, []float64{1 - p, p})
		}
	}
	return proba, nil
}

// Predict thresholds the positive probability at 0.5.
func (s *Sequential) Predict(x [][]float64) ([]int, error) {
	proba, err := s.PredictProba(x)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, p := range proba {
		labels[i] = threshold(p[1])
	}
	return labels, nil
}

func threshold(p float64) int {
	if p > 0.5 {
		return 1
	}
	return 0
}

type snapshot struct {
	Kind         string                  `json:"kind"`
	Input        int                     `json:"input"`
	BatchSize    int                     `json:"batch_size"`
	Architecture Architecture            `json:"architecture"`
	Params       map[string]xmath.Matrix `json:"params"`
}

// MarshalJSON exports the architecture and the weights of the network.
func (s *Sequential) MarshalJSON() ([]byte, error) {
	if !s.trained {
		return nil, NotTrainedErr
	}
	params := make(map[string]xmath.Matrix)
	for _, p := range s.params() {
		params[p.name] = p.value
	}
	return json.Marshal(snapshot{
		Kind:         s.kind,
		Input:        s.input,
		BatchSize:    s.batchSize,
		Architecture: s.arch,
		Params:       params,
	})
}

// UnmarshalJSON restores the weights of a network.
// The snapshot must match the architecture the network was created with.
func (s *Sequential) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Kind != s.kind || snap.Input != s.input || snap.Architecture != s.arch {
		return fmt.Errorf("snapshot of %s[%d] %+v does not match %s[%d] %+v: %w",
			snap.Kind, snap.Input, snap.Architecture, s.kind, s.input, s.arch, ShapeErr)
	}
	for _, p := range s.params() {
		value, ok := snap.Params[p.name]
		if !ok {
			return fmt.Errorf("missing param %s: %w", p.name, ShapeErr)
		}
		if err := p.load(value); err != nil {
			return err
		}
	}
	for _, v := range snap.Params {
		for _, row := range v {
			for _, w := range row {
				if math.IsNaN(w) || math.IsInf(w, 0) {
					return fmt.Errorf("non finite weight in snapshot: %w", ShapeErr)
				}
			}
		}
	}
	if snap.BatchSize > 0 {
		s.batchSize = snap.BatchSize
	}
	s.trained = true
	return nil
}
