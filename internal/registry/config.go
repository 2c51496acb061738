package registry

import (
	"fmt"

	"github.com/drakos74/astroturf/internal/math/ml"
)

// Config holds the parameters of both registries.
type Config struct {
	Classical ClassicalConfig `json:"classical" yaml:"classical"`
	Neural    NeuralConfig    `json:"neural" yaml:"neural"`
}

// ClassicalConfig holds the parameters of the classical models and their evaluation.
type ClassicalConfig struct {
	// Folds is the number of cross validation folds.
	Folds int    `json:"folds" yaml:"folds"`
	Seed  uint64 `json:"seed" yaml:"seed"`
	// ValidationFraction is the share of rows held out by RunModels.
	ValidationFraction float64 `json:"validation_fraction" yaml:"validation_fraction"`
	// Workers bounds the folds evaluated in parallel, 0 means one per cpu.
	Workers   int          `json:"workers" yaml:"workers"`
	SGD       ml.SGDConfig `json:"sgd" yaml:"sgd"`
	Smoothing float64      `json:"smoothing" yaml:"smoothing"`
	Trees     int          `json:"trees" yaml:"trees"`
	SVM       ml.SVMConfig `json:"svm" yaml:"svm"`
}

// NeuralConfig holds the training and architecture parameters of the neural models.
type NeuralConfig struct {
	Training     ml.TrainingConfig `json:"training" yaml:"training"`
	Architecture ml.Architecture   `json:"architecture" yaml:"architecture"`
}

// DefaultConfig returns the standard parameters of both registries.
func DefaultConfig() Config {
	training := ml.DefaultTrainingConfig()
	return Config{
		Classical: ClassicalConfig{
			Folds:              10,
			Seed:               1,
			ValidationFraction: 0.1,
			SGD:                ml.DefaultSGDConfig(),
			Smoothing:          1e-9,
			Trees:              100,
			SVM:                ml.DefaultSVMConfig(),
		},
		Neural: NeuralConfig{
			Training:     training,
			Architecture: ml.DefaultArchitecture(training.BatchSize),
		},
	}
}

// Validate checks the config values.
func (c Config) Validate() error {
	if c.Classical.Folds < 2 {
		return fmt.Errorf("need at least 2 folds: %d", c.Classical.Folds)
	}
	if c.Classical.ValidationFraction <= 0 || c.Classical.ValidationFraction >= 1 {
		return fmt.Errorf("validation fraction out of (0,1): %f", c.Classical.ValidationFraction)
	}
	if c.Classical.Trees < 1 {
		return fmt.Errorf("forest needs at least one tree: %d", c.Classical.Trees)
	}
	if err := c.Neural.Training.Validate(); err != nil {
		return err
	}
	return c.Neural.Architecture.Validate()
}
