package gz

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/astroturf/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	n uint64
}

func (c *counter) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, c.n)
	return b, nil
}

func (c *counter) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("expected 8 bytes, got %d", len(data))
	}
	c.n = binary.BigEndian.Uint64(data)
	return nil
}

func TestStorage(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	k := storage.Key{Name: "Bayes"}

	var missing counter
	err := s.Load(k, &missing)
	assert.True(t, errors.Is(err, storage.NotFoundErr))

	require.NoError(t, s.Store(k, &counter{n: 42}))
	_, err = os.Stat(filepath.Join(dir, "Bayes.gz"))
	require.NoError(t, err)

	var c counter
	require.NoError(t, s.Load(k, &c))
	assert.Equal(t, uint64(42), c.n)

	// a fresh storage on the same directory sees the artifact
	var again counter
	require.NoError(t, New(dir).Load(k, &again))
	assert.Equal(t, uint64(42), again.n)

	assert.Error(t, s.Store(k, "not a marshaler"))
}

func TestStorage_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "SVM.gz"), []byte("garbage"), 0644))
	var c counter
	err := New(dir).Load(storage.Key{Name: "SVM"}, &c)
	assert.True(t, errors.Is(err, storage.CouldNotLoadErr))
}
