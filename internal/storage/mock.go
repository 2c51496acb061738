package storage

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// MockShard creates in-memory storages, one per directory.
func MockShard() Shard {
	shards := make(map[string]*MockStorage)
	return func(dir string) (Persistence, error) {
		if _, ok := shards[dir]; !ok {
			shards[dir] = NewMockStorage()
		}
		return shards[dir], nil
	}
}

// MockStorage keeps the encoded values in memory.
type MockStorage struct {
	Elements map[Key][]byte
}

// NewMockStorage creates an empty in-memory storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{Elements: make(map[Key][]byte)}
}

func (m *MockStorage) Store(k Key, value interface{}) error {
	var data []byte
	var err error
	if bm, ok := value.(encoding.BinaryMarshaler); ok {
		data, err = bm.MarshalBinary()
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return fmt.Errorf("could not encode '%s': %w", k.Path(), err)
	}
	m.Elements[k] = data
	return nil
}

func (m *MockStorage) Load(k Key, value interface{}) error {
	data, ok := m.Elements[k]
	if !ok {
		return fmt.Errorf("not found '%s': %w", k.Path(), NotFoundErr)
	}
	var err error
	if bu, ok := value.(encoding.BinaryUnmarshaler); ok {
		err = bu.UnmarshalBinary(data)
	} else {
		err = json.Unmarshal(data, value)
	}
	if err != nil {
		return fmt.Errorf("could not decode '%s': %v: %w", k.Path(), err, CouldNotLoadErr)
	}
	return nil
}
