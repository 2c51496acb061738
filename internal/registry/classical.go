package registry

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/drakos74/astroturf/internal/math/ml"
	"github.com/drakos74/astroturf/internal/metric"
	"github.com/drakos74/astroturf/internal/metrics"
	"github.com/drakos74/astroturf/internal/model"
	"github.com/drakos74/astroturf/internal/storage/file/gz"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

const (
	SGD    = "SGD"
	Bayes  = "Bayes"
	Forest = "Forest"
	SVM    = "SVM"
)

// Classical is the registry of the one shot classical estimators.
type Classical struct {
	*Registry[ml.Estimator]
	cfg ClassicalConfig
	rng *rand.Rand
}

// NewClassical creates the classical registry with the SGD, Bayes, Forest and SVM models.
// Models are stored as gzip artifacts.
func NewClassical(cfg ClassicalConfig) (*Classical, error) {
	c := &Classical{
		Registry: newRegistry[ml.Estimator]("classical", gz.Shard()),
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	constructors := []struct {
		name      string
		construct Constructor[ml.Estimator]
	}{
		{SGD, func() (ml.Estimator, error) { return ml.NewSGD(cfg.SGD), nil }},
		{Bayes, func() (ml.Estimator, error) { return ml.NewBayes(cfg.Smoothing), nil }},
		{Forest, func() (ml.Estimator, error) { return ml.NewForest(cfg.Trees), nil }},
		{SVM, func() (ml.Estimator, error) { return ml.NewSVM(cfg.SVM), nil }},
	}
	for _, m := range constructors {
		if err := c.add(m.name, m.construct); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Folds holds the scores of every cross validation fold, by fold index.
type Folds []model.Score

// Column returns the values of one metric across the folds.
func (f Folds) Column(name string) []float64 {
	values := make([]float64, len(f))
	for i, s := range f {
		values[i] = math.NaN()
		for j, c := range model.Columns {
			if c == name {
				values[i] = s.Values()[j]
			}
		}
	}
	return values
}

// Mean averages every metric over the folds where it is defined.
func (f Folds) Mean() model.Score {
	values := make([]float64, len(model.Columns))
	for j, c := range model.Columns {
		var sum, n float64
		for _, v := range f.Column(c) {
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		values[j] = math.NaN()
		if n > 0 {
			values[j] = sum / n
		}
	}
	return model.Score{
		Accuracy:  values[0],
		Precision: values[1],
		Recall:    values[2],
		F1:        values[3],
		ROCAUC:    values[4],
	}
}

// Table lists the fold scores, one row per fold.
func (f Folds) Table() model.Table {
	table := model.NewTable()
	for i, s := range f {
		table.Add(fmt.Sprintf("fold-%d", i+1), s)
	}
	return table
}

// Validate cross validates the given model with stratified folds.
// Folds are evaluated in parallel on fresh learners, the registry entry is not touched.
// A fold that fails records missing metrics.
func (c *Classical) Validate(ctx context.Context, name string, ds model.Dataset) (Folds, error) {
	e, err := c.entry(name)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	folds, err := ds.StratifiedFolds(c.cfg.Folds, c.cfg.Seed)
	if err != nil {
		return nil, err
	}

	workers := c.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	scores := make(Folds, len(folds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range folds {
		i := i
		scores[i] = model.MissingScore()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := c.fold(e, ds, folds, i)
			if err != nil {
				log.Warn().
					Str("run", c.run).
					Str("model", name).
					Int("fold", i).
					Err(err).
					Msg("fold failed")
				return nil
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info().
		Str("run", c.run).
		Str("model", name).
		Int("folds", len(scores)).
		Str("mean", scores.Mean().Format()).
		Msg("cross validation")
	return scores, nil
}

func (c *Classical) fold(e *entry[ml.Estimator], ds model.Dataset, folds [][]int, i int) (model.Score, error) {
	trainIdx := make([]int, 0, ds.Len())
	for j, f := range folds {
		if j != i {
			trainIdx = append(trainIdx, f...)
		}
	}
	learner, err := e.construct()
	if err != nil {
		return model.MissingScore(), err
	}
	train := ds.Subset(trainIdx)
	test := ds.Subset(folds[i])
	if err := learner.Fit(train.X, train.Y); err != nil {
		return model.MissingScore(), err
	}
	return evaluate(learner, test)
}

// evaluate scores the learner on the dataset,
// the roc auc is computed on the positive class probability.
func evaluate(learner ml.Learner, ds model.Dataset) (model.Score, error) {
	pred, err := learner.Predict(ds.X)
	if err != nil {
		return model.MissingScore(), err
	}
	proba, err := learner.PredictProba(ds.X)
	if err != nil {
		return model.MissingScore(), err
	}
	return metric.Compute(ds.Y, pred, ml.Positive(proba)), nil
}

// RunModels fits every model on a random split of the dataset and scores it on the held out part.
// A model that fails to fit gets a row of missing metrics.
func (c *Classical) RunModels(ctx context.Context, ds model.Dataset) (model.Table, error) {
	table := model.NewTable()
	if err := ds.Validate(); err != nil {
		return table, err
	}
	train, val, err := ds.Split(c.cfg.ValidationFraction, c.rng)
	if err != nil {
		return table, err
	}
	for _, e := range c.entries {
		if err := ctx.Err(); err != nil {
			return table, err
		}
		err := c.fit(e, func(learner ml.Estimator) error {
			return learner.Fit(train.X, train.Y)
		})
		if err != nil {
			log.Error().
				Str("run", c.run).
				Str("model", e.name).
				Err(err).
				Msg("could not fit model")
			table.Add(e.name, model.MissingScore())
			continue
		}
		score, err := evaluate(e.learner, val)
		if err != nil {
			log.Error().
				Str("run", c.run).
				Str("model", e.name).
				Err(err).
				Msg("could not score model")
		}
		metrics.Observer.Score(e.name, score)
		table.Add(e.name, score)
	}
	return table, nil
}
