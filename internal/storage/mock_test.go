package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockShard(t *testing.T) {
	shard := MockShard()
	s, err := shard("a")
	require.NoError(t, err)
	require.NoError(t, s.Store(Key{Name: "x"}, map[string]int{"a": 1}))

	same, err := shard("a")
	require.NoError(t, err)
	var v map[string]int
	require.NoError(t, same.Load(Key{Name: "x"}, &v))
	assert.Equal(t, map[string]int{"a": 1}, v)

	other, err := shard("b")
	require.NoError(t, err)
	assert.True(t, errors.Is(other.Load(Key{Name: "x"}, &v), NotFoundErr))
}
