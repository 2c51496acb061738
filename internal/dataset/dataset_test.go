package dataset

import (
	"context"
	"errors"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drakos74/astroturf/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	csv := "f1,f2,label\n1.5,2,0\n-0.5,3.25,1\n0,1,1\n"
	ds, err := Read(context.Background(), strings.NewReader(csv), "label")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1.5, 2}, {-0.5, 3.25}, {0, 1}}, ds.X)
	assert.Equal(t, []int{0, 1, 1}, ds.Y)

	_, err = Read(context.Background(), strings.NewReader(csv), "class")
	assert.True(t, errors.Is(err, LabelNotFoundErr))

	_, err = Read(context.Background(), strings.NewReader("f1,label\nabc,0\nxyz,1\n"), "label")
	assert.True(t, errors.Is(err, model.InvalidDatasetErr))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte("a,b,label\n1,2,0\n3,4,1\n"), 0644))
	ds, err := Load(context.Background(), path, "label")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 2, ds.Dim())

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "label")
	assert.Error(t, err)
}

func TestBlobs(t *testing.T) {
	ds := Blobs(1000, 50, 1, 1)
	require.NoError(t, ds.Validate())
	assert.Equal(t, map[int]int{0: 500, 1: 500}, ds.Counts())
	assert.Equal(t, 50, ds.Dim())
	assert.Equal(t, ds, Blobs(1000, 50, 1, 1))

	noise := Noise(100, 3, 2)
	assert.Equal(t, map[int]int{0: 50, 1: 50}, noise.Counts())
}
