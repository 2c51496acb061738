package json

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/astroturf/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weights struct {
	Kind   string      `json:"kind"`
	Values [][]float64 `json:"values"`
}

func TestBlobStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	s := NewJsonBlob(dir, true)
	k := storage.Key{Name: "CNN"}

	var w weights
	err := s.Load(k, &w)
	assert.True(t, errors.Is(err, storage.NotFoundErr))

	require.NoError(t, s.Store(k, weights{Kind: "cnn", Values: [][]float64{{1, 2}, {3, 4}}}))
	_, err = os.Stat(filepath.Join(dir, "CNN.json"))
	require.NoError(t, err)

	require.NoError(t, s.Load(k, &w))
	assert.Equal(t, "cnn", w.Kind)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, w.Values)
}

func TestBlobStorage_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "LSTM.json"), []byte("{not json"), 0644))
	var w weights
	err := NewJsonBlob(dir, false).Load(storage.Key{Name: "LSTM"}, &w)
	assert.True(t, errors.Is(err, storage.CouldNotLoadErr))
}

func TestKey_Path(t *testing.T) {
	assert.Equal(t, "SGD", storage.Key{Name: "SGD"}.Path())
}

func TestBlobStorage_NotDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "models")
	require.NoError(t, ioutil.WriteFile(file, []byte("x"), 0644))
	err := NewJsonBlob(file, false).Store(storage.Key{Name: "CNN"}, weights{Kind: "cnn"})
	assert.True(t, errors.Is(err, storage.UnrecoverableErr))
}
