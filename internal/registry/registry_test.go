package registry

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/astroturf/infra/config"
	"github.com/drakos74/astroturf/internal/dataset"
	"github.com/drakos74/astroturf/internal/math/ml"
	"github.com/drakos74/astroturf/internal/model"
	"github.com/drakos74/astroturf/internal/storage"
	"github.com/drakos74/astroturf/internal/storage/file/gz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Classical.Trees = 20
	cfg.Classical.SVM.MaxIterations = 2000
	cfg.Neural.Training.Epochs = 5
	cfg.Neural.Training.BatchSize = 16
	cfg.Neural.Training.LearningRate = 0.01
	cfg.Neural.Architecture = ml.Architecture{
		Filters:          8,
		Kernel:           2,
		Dense:            16,
		ConvDropout:      0.2,
		Units:            8,
		Timesteps:        1,
		RecurrentDropout: 0.3,
		Hidden:           16,
	}
	return cfg
}

func assertMetrics(t *testing.T, score model.Score) {
	for i, v := range score.Values() {
		if math.IsNaN(v) {
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0, model.Columns[i])
		assert.LessOrEqual(t, v, 1.0, model.Columns[i])
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	dir := config.Dir
	config.Dir = filepath.Join("..", "..", "infra", "config")
	defer func() {
		config.Dir = dir
	}()
	var shipped Config
	config.MustLoad("registry", &shipped)
	assert.Equal(t, cfg, shipped)

	cfg.Classical.Folds = 1
	assert.Error(t, cfg.Validate())
}

func TestClassical_RunModels(t *testing.T) {
	ds := dataset.Blobs(1000, 50, 1, 1)
	c, err := NewClassical(testConfig().Classical)
	require.NoError(t, err)

	for _, name := range c.Names() {
		state, err := c.State(name)
		require.NoError(t, err)
		assert.Equal(t, model.Unfitted, state)
	}

	table, err := c.RunModels(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{SGD, Bayes, Forest, SVM}, table.Names())
	for _, row := range table.Rows {
		fmt.Printf("%s = %s\n", row.Name, row.Score.Format())
		assertMetrics(t, row.Score)
		assert.False(t, math.IsNaN(row.Score.ROCAUC), row.Name)
		assert.Greater(t, row.Score.Accuracy, 0.8, row.Name)
		state, err := c.State(row.Name)
		require.NoError(t, err)
		assert.Equal(t, model.Fitted, state)
	}

	_, err = c.State("KNN")
	assert.True(t, errors.Is(err, UnknownModelErr))
}

func TestClassical_NotFitted(t *testing.T) {
	c, err := NewClassical(testConfig().Classical)
	require.NoError(t, err)

	_, err = c.Predict([][]float64{{1, 2}})
	assert.True(t, errors.Is(err, NotFittedErr))

	err = c.SaveModels(t.TempDir())
	assert.True(t, errors.Is(err, NotFittedErr))
}

func TestClassical_SaveLoad(t *testing.T) {
	ds := dataset.Blobs(400, 10, 1, 2)
	cfg := testConfig().Classical
	c, err := NewClassical(cfg)
	require.NoError(t, err)
	_, err = c.RunModels(context.Background(), ds)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, c.SaveModels(dir))
	for _, name := range c.Names() {
		_, err := os.Stat(filepath.Join(dir, fmt.Sprintf("%s.gz", name)))
		assert.NoError(t, err, name)
	}

	expected, err := c.Predict(ds.X)
	require.NoError(t, err)

	loaded, err := NewClassical(cfg)
	require.NoError(t, err)
	require.NoError(t, loaded.LoadModels(dir))
	actual, err := loaded.Predict(ds.X)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestClassical_LoadEmpty(t *testing.T) {
	c, err := NewClassical(testConfig().Classical)
	require.NoError(t, err)
	require.NoError(t, c.LoadModels(t.TempDir()))
	for _, name := range c.Names() {
		state, err := c.State(name)
		require.NoError(t, err)
		assert.Equal(t, model.Unfitted, state)
	}
}

func TestClassical_LoadPartial(t *testing.T) {
	ds := dataset.Blobs(200, 5, 1, 3)
	cfg := testConfig().Classical
	bayes := ml.NewBayes(cfg.Smoothing)
	require.NoError(t, bayes.Fit(ds.X, ds.Y))

	dir := t.TempDir()
	require.NoError(t, gz.New(dir).Store(storage.Key{Name: Bayes}, bayes))

	c, err := NewClassical(cfg)
	require.NoError(t, err)
	require.NoError(t, c.LoadModels(dir))

	for _, name := range c.Names() {
		state, err := c.State(name)
		require.NoError(t, err)
		if name == Bayes {
			assert.Equal(t, model.Fitted, state)
		} else {
			assert.Equal(t, model.Unfitted, state, name)
		}
	}

	_, err = c.Predict(ds.X)
	assert.True(t, errors.Is(err, NotFittedErr))
}

func TestClassical_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "SGD.gz"), []byte("not a model"), 0644))

	c, err := NewClassical(testConfig().Classical)
	require.NoError(t, err)
	err = c.LoadModels(dir)
	assert.True(t, errors.Is(err, storage.CouldNotLoadErr))
	state, err := c.State(SGD)
	require.NoError(t, err)
	assert.Equal(t, model.Unfitted, state)
}

func TestClassical_Validate(t *testing.T) {
	ds := dataset.Blobs(1000, 50, 1, 4)
	c, err := NewClassical(testConfig().Classical)
	require.NoError(t, err)

	folds, err := c.Validate(context.Background(), Bayes, ds)
	require.NoError(t, err)
	assert.Len(t, folds, 10)
	for i, score := range folds {
		assertMetrics(t, score)
		assert.Greater(t, score.Accuracy, 0.8, i)
	}
	assert.Equal(t, 10, folds.Table().Len())
	assert.False(t, math.IsNaN(folds.Mean().ROCAUC))

	// cross validation does not fit the registry entry
	state, err := c.State(Bayes)
	require.NoError(t, err)
	assert.Equal(t, model.Unfitted, state)

	_, err = c.Validate(context.Background(), "KNN", ds)
	assert.True(t, errors.Is(err, UnknownModelErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Validate(ctx, Bayes, ds)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClassical_ValidateFailedFold(t *testing.T) {
	// sgd only fits binary labels
	ds := dataset.Blobs(100, 3, 1, 5)
	for i := 0; i < len(ds.Y); i += 10 {
		ds.Y[i] = 2
	}
	cfg := testConfig().Classical
	c, err := NewClassical(cfg)
	require.NoError(t, err)

	folds, err := c.Validate(context.Background(), SGD, ds)
	require.NoError(t, err)
	assert.Len(t, folds, cfg.Folds)
	for _, score := range folds {
		assert.Len(t, score.Missing(), len(model.Columns))
	}
}

func TestFolds_Mean(t *testing.T) {
	folds := Folds{
		{Accuracy: 0.5, Precision: 0.5, Recall: 0.5, F1: 0.5, ROCAUC: 0.5},
		{Accuracy: 1, Precision: 1, Recall: 1, F1: 1, ROCAUC: math.NaN()},
		model.MissingScore(),
	}
	mean := folds.Mean()
	assert.Equal(t, 0.75, mean.Accuracy)
	assert.Equal(t, 0.75, mean.F1)
	assert.Equal(t, 0.5, mean.ROCAUC)
	assert.Equal(t, []float64{0.5, 1}, folds.Column("Accuracy")[:2])
	assert.True(t, math.IsNaN(folds.Column("Accuracy")[2]))
	assert.Equal(t, []string{"fold-1", "fold-2", "fold-3"}, folds.Table().Names())
}
