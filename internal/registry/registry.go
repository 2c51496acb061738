package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drakos74/astroturf/internal/math/ml"
	"github.com/drakos74/astroturf/internal/metrics"
	"github.com/drakos74/astroturf/internal/model"
	"github.com/drakos74/astroturf/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// NotFittedErr is returned when predicting or saving before all models are fitted or loaded.
	NotFittedErr = errors.New("model not fitted")
	// UnknownModelErr is returned for a name that is not part of the registry.
	UnknownModelErr = errors.New("unknown model")
)

// Constructor creates a fresh unfitted learner.
type Constructor[L ml.Learner] func() (L, error)

type entry[L ml.Learner] struct {
	name      string
	construct Constructor[L]
	learner   L
	state     model.State
}

// Registry is an ordered fixed set of named learners.
// Entries are only mutated through the registry operations.
type Registry[L ml.Learner] struct {
	kind    string
	run     string
	entries []*entry[L]
	shard   storage.Shard
}

func newRegistry[L ml.Learner](kind string, shard storage.Shard) *Registry[L] {
	return &Registry[L]{
		kind:    kind,
		run:     uuid.New().String(),
		entries: make([]*entry[L], 0),
		shard:   shard,
	}
}

// add registers a new entry, it is only used at construction time.
func (r *Registry[L]) add(name string, construct Constructor[L]) error {
	learner, err := construct()
	if err != nil {
		return fmt.Errorf("could not create '%s': %w", name, err)
	}
	r.entries = append(r.entries, &entry[L]{
		name:      name,
		construct: construct,
		learner:   learner,
		state:     model.Unfitted,
	})
	return nil
}

// WithStorage sets the storage used to save and load the models.
func (r *Registry[L]) WithStorage(shard storage.Shard) *Registry[L] {
	r.shard = shard
	return r
}

// Names returns the model names in registry order.
func (r *Registry[L]) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// State returns the lifecycle state of the given model.
func (r *Registry[L]) State(name string) (model.State, error) {
	e, err := r.entry(name)
	if err != nil {
		return model.Unfitted, err
	}
	return e.state, nil
}

func (r *Registry[L]) entry(name string) (*entry[L], error) {
	for _, e := range r.entries {
		if e.name == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("'%s' in %s registry: %w", name, r.kind, UnknownModelErr)
}

// fit trains a fresh learner for the entry.
// On failure the entry keeps its previous learner and state.
func (r *Registry[L]) fit(e *entry[L], fit func(learner L) error) error {
	learner, err := e.construct()
	if err != nil {
		return fmt.Errorf("could not create '%s': %w", e.name, err)
	}
	previous := e.state
	e.state = model.Fitting
	log.Info().
		Str("run", r.run).
		Str("registry", r.kind).
		Str("model", e.name).
		Time("start", time.Now()).
		Msg(fmt.Sprintf("fitting %s model", e.name))
	start := time.Now()
	err = fit(learner)
	metrics.Observer.Fit(r.kind, e.name, start, err)
	if err != nil {
		e.state = previous
		return err
	}
	e.learner = learner
	e.state = model.Fitted
	log.Info().
		Str("run", r.run).
		Str("registry", r.kind).
		Str("model", e.name).
		Dur("duration", time.Since(start)).
		Msg("fitted")
	return nil
}

func (r *Registry[L]) fitted() error {
	unfitted := make([]string, 0)
	for _, e := range r.entries {
		if e.state != model.Fitted {
			unfitted = append(unfitted, e.name)
		}
	}
	if len(unfitted) > 0 {
		return fmt.Errorf("%s registry [%s]: %w", r.kind, strings.Join(unfitted, ","), NotFittedErr)
	}
	return nil
}

// Prediction holds the labels predicted by one model.
type Prediction struct {
	Name   string `json:"name"`
	Labels []int  `json:"labels"`
}

// Predictions keeps the predicted labels in registry order.
type Predictions []Prediction

// Get returns the labels of the given model.
func (p Predictions) Get(name string) ([]int, bool) {
	for _, pp := range p {
		if pp.Name == name {
			return pp.Labels, true
		}
	}
	return nil, false
}

// Predict returns the labels of every model for x.
// All models must be fitted.
func (r *Registry[L]) Predict(x [][]float64) (Predictions, error) {
	if err := r.fitted(); err != nil {
		return nil, err
	}
	predictions := make(Predictions, 0, len(r.entries))
	for _, e := range r.entries {
		labels, err := e.learner.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("could not predict with '%s': %w", e.name, err)
		}
		predictions = append(predictions, Prediction{Name: e.name, Labels: labels})
	}
	return predictions, nil
}

// SaveModels writes one artifact per model into dir.
// All models must be fitted.
func (r *Registry[L]) SaveModels(dir string) error {
	if err := r.fitted(); err != nil {
		return err
	}
	store, err := r.shard(dir)
	if err != nil {
		return fmt.Errorf("could not open storage '%s': %w", dir, err)
	}
	for _, e := range r.entries {
		if err := store.Store(storage.Key{Name: e.name}, e.learner); err != nil {
			return fmt.Errorf("could not save '%s': %w", e.name, err)
		}
		log.Info().
			Str("run", r.run).
			Str("registry", r.kind).
			Str("model", e.name).
			Str("dir", dir).
			Msg("saved")
	}
	return nil
}

// LoadModels restores the models found in dir.
// A missing artifact leaves the entry as is, a corrupt one fails the whole load.
func (r *Registry[L]) LoadModels(dir string) error {
	store, err := r.shard(dir)
	if err != nil {
		return fmt.Errorf("could not open storage '%s': %w", dir, err)
	}
	for _, e := range r.entries {
		learner, err := e.construct()
		if err != nil {
			return fmt.Errorf("could not create '%s': %w", e.name, err)
		}
		err = store.Load(storage.Key{Name: e.name}, learner)
		if errors.Is(err, storage.NotFoundErr) {
			log.Debug().
				Str("run", r.run).
				Str("registry", r.kind).
				Str("model", e.name).
				Str("dir", dir).
				Msg("no artifact")
			continue
		}
		if err != nil {
			return fmt.Errorf("could not load '%s': %w", e.name, err)
		}
		e.learner = learner
		e.state = model.Fitted
		log.Info().
			Str("run", r.run).
			Str("registry", r.kind).
			Str("model", e.name).
			Str("dir", dir).
			Msg("loaded")
	}
	return nil
}
