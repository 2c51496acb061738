package ml

import (
	"fmt"
	"math"
)

// TrainingConfig holds the parameters of a neural training run.
type TrainingConfig struct {
	BatchSize    int     `json:"batch_size" yaml:"batch_size"`
	Epochs       int     `json:"epochs" yaml:"epochs"`
	Patience     int     `json:"patience" yaml:"patience"`
	MinDelta     float64 `json:"min_delta" yaml:"min_delta"`
	TestFraction float64 `json:"test_fraction" yaml:"test_fraction"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	Seed         uint64  `json:"seed" yaml:"seed"`
	// Progress renders a progress bar over the epochs.
	Progress bool `json:"progress" yaml:"progress"`
}

// DefaultTrainingConfig returns the standard training parameters.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		BatchSize:    32,
		Epochs:       30,
		Patience:     3,
		MinDelta:     0,
		TestFraction: 0.25,
		LearningRate: 0.001,
		Seed:         1,
	}
}

// Validate checks the config values.
func (c TrainingConfig) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive: %d", c.BatchSize)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("epochs must be positive: %d", c.Epochs)
	}
	if c.Patience < 1 {
		return fmt.Errorf("patience must be positive: %d", c.Patience)
	}
	if c.MinDelta < 0 {
		return fmt.Errorf("min delta must not be negative: %f", c.MinDelta)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test fraction out of (0,1): %f", c.TestFraction)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive: %f", c.LearningRate)
	}
	return nil
}

// EarlyStopping tracks the validation loss of one training run.
// It is created fresh for every run.
type EarlyStopping struct {
	Patience int
	MinDelta float64
	best     float64
	wait     int
}

// NewEarlyStopping creates the early stopping monitor for the given config.
func NewEarlyStopping(cfg TrainingConfig) *EarlyStopping {
	return &EarlyStopping{
		Patience: cfg.Patience,
		MinDelta: cfg.MinDelta,
		best:     math.Inf(1),
	}
}

// Step records the loss of the next epoch and returns true if training should stop.
// A loss improves only if it is lower than the best one by more than MinDelta.
func (e *EarlyStopping) Step(loss float64) bool {
	if loss < e.best-e.MinDelta {
		e.best = loss
		e.wait = 0
		return false
	}
	e.wait++
	return e.wait >= e.Patience
}

// Best returns the best loss seen so far.
func (e *EarlyStopping) Best() float64 {
	return e.best
}

// Wait returns the number of epochs since the last improvement.
func (e *EarlyStopping) Wait() int {
	return e.wait
}
