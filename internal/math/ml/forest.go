package ml

import (
	"bytes"
	"encoding/gob"
	"fmt"

	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog/log"
)

// Forest is a random forest classifier.
type Forest struct {
	trees   int
	dim     int
	classes int
	forest  *randomforest.Forest
}

// NewForest creates a random forest with n trees.
func NewForest(n int) *Forest {
	return &Forest{
		trees: n,
	}
}

// Fit grows the trees of the forest.
func (rf *Forest) Fit(x [][]float64, y []int) error {
	dim, err := checkFit(x, y)
	if err != nil {
		return err
	}
	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: x, Class: y}
	forest.Train(rf.trees)
	// the training data is not needed for voting
	forest.Data = randomforest.ForestData{}
	rf.dim = dim
	rf.classes = classes(y)
	rf.forest = forest
	log.Debug().
		Int("trees", rf.trees).
		Int("dim", dim).
		Floats64("importance", forest.FeatureImportance).
		Msg("forest fitted")
	return nil
}

// PredictProba returns the share of votes per class for every row.
func (rf *Forest) PredictProba(x [][]float64) ([][]float64, error) {
	if rf.forest == nil {
		return nil, NotTrainedErr
	}
	if err := checkInput(x, rf.dim); err != nil {
		return nil, err
	}
	proba := make([][]float64, len(x))
	for i, row := range x {
		p := make([]float64, rf.classes)
		copy(p, rf.forest.Vote(row))
		proba[i] = p
	}
	return proba, nil
}

// Predict returns the majority vote of every row.
func (rf *Forest) Predict(x [][]float64) ([]int, error) {
	proba, err := rf.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return Argmax(proba), nil
}

type forestState struct {
	Trees   int
	Dim     int
	Classes int
	Forest  *randomforest.Forest
}

// MarshalBinary encodes the grown trees.
func (rf *Forest) MarshalBinary() ([]byte, error) {
	if rf.forest == nil {
		return nil, NotTrainedErr
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(forestState{
		Trees:   rf.trees,
		Dim:     rf.dim,
		Classes: rf.classes,
		Forest:  rf.forest,
	})
	return buf.Bytes(), err
}

// UnmarshalBinary restores the grown trees.
func (rf *Forest) UnmarshalBinary(data []byte) error {
	var state forestState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	if state.Forest == nil || len(state.Forest.Trees) == 0 {
		return fmt.Errorf("forest without trees: %w", ShapeErr)
	}
	rf.trees = state.Trees
	rf.dim = state.Dim
	rf.classes = state.Classes
	rf.forest = state.Forest
	return nil
}
