package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/drakos74/astroturf/internal/math/ml"
	"github.com/drakos74/astroturf/internal/metrics"
	"github.com/drakos74/astroturf/internal/model"
	"github.com/drakos74/astroturf/internal/report"
	"github.com/drakos74/astroturf/internal/storage/file/json"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const (
	CNN  = "CNN"
	LSTM = "LSTM"
)

// Neural is the registry of the epoch trained networks.
type Neural struct {
	*Registry[ml.Network]
	input int
	cfg   NeuralConfig
	rng   *rand.Rand
}

// NewNeural creates the neural registry with the CNN and LSTM models for inputs of the given size.
// Models are stored as json snapshots.
func NewNeural(input int, cfg NeuralConfig) (*Neural, error) {
	if err := cfg.Training.Validate(); err != nil {
		return nil, err
	}
	n := &Neural{
		Registry: newRegistry[ml.Network]("neural", json.BlobShard(false)),
		input:    input,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	constructors := []struct {
		name      string
		construct Constructor[ml.Network]
	}{
		{CNN, func() (ml.Network, error) { return ml.NewCNN(input, cfg.Architecture, cfg.Training.Seed) }},
		{LSTM, func() (ml.Network, error) { return ml.NewBiLSTM(input, cfg.Architecture, cfg.Training.Seed) }},
	}
	for _, m := range constructors {
		if err := n.add(m.name, m.construct); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Config returns the training config shared by the networks.
func (n *Neural) Config() ml.TrainingConfig {
	return n.cfg.Training
}

// RunModels trains every network on a random split of the dataset,
// monitoring the held out part for early stopping.
// A network that fails to train gets an empty history.
func (n *Neural) RunModels(ctx context.Context, ds model.Dataset) (model.Histories, error) {
	histories := make(model.Histories, 0, len(n.entries))
	if err := ds.Validate(); err != nil {
		return histories, err
	}
	if ds.Dim() != n.input {
		return histories, fmt.Errorf("dataset has %d features, networks expect %d: %w", ds.Dim(), n.input, ml.ShapeErr)
	}
	train, val, err := ds.Split(n.cfg.Training.TestFraction, n.rng)
	if err != nil {
		return histories, err
	}
	for _, e := range n.entries {
		if err := ctx.Err(); err != nil {
			return histories, err
		}
		var history model.HistoryFrame
		err := n.fit(e, func(learner ml.Network) error {
			h, err := learner.Train(ctx, train, val, n.cfg.Training)
			history = h
			return err
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return histories, ctxErr
			}
			log.Error().
				Str("run", n.run).
				Str("model", e.name).
				Err(err).
				Msg("could not train model")
			histories = append(histories, model.NamedHistory{Name: e.name, History: model.NewHistoryFrame(0)})
			continue
		}
		metrics.Observer.Epochs(e.name, history.Len())
		if last, ok := history.Last(); ok {
			metrics.Observer.Score(e.name, last.Score())
		}
		log.Info().
			Str("run", n.run).
			Str("model", e.name).
			Int("epochs", history.Len()).
			Bool("stopped", history.Stopped).
			Msg("trained")
		histories = append(histories, model.NamedHistory{Name: e.name, History: history})
	}
	return histories, nil
}

// SaveHistory exports the history of every network into outDir
// and returns the final epoch metrics of each one.
// Each network gets a csv of all epochs and a text chart rendered with asciigraph, not an image.
func (n *Neural) SaveHistory(histories model.Histories, outDir string) (model.Table, error) {
	now := time.Now()
	for _, h := range histories {
		if err := report.Export(outDir, now, h.Name, h.History); err != nil {
			return model.NewTable(), fmt.Errorf("could not export history of '%s': %w", h.Name, err)
		}
	}
	return histories.Summary(), nil
}
