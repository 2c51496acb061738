package gz

import (
	"encoding"
	"fmt"

	"github.com/drakos74/astroturf/internal/storage"
	"github.com/peterbourgon/diskv"
	"github.com/rs/zerolog/log"
)

const ext = "gz"

// Storage keeps binary encoded values as gzip compressed files in one directory.
// Values must implement encoding.BinaryMarshaler to be stored
// and encoding.BinaryUnmarshaler to be loaded.
type Storage struct {
	path  string
	store *diskv.Diskv
}

// Shard creates gzip storages.
func Shard() storage.Shard {
	return func(dir string) (storage.Persistence, error) {
		return New(dir), nil
	}
}

// New creates a gzip storage under the given directory.
func New(dir string) *Storage {
	if dir == "" {
		dir = storage.DefaultDir
	}
	return &Storage{
		path: dir,
		store: diskv.New(diskv.Options{
			BasePath: dir,
			// flat layout, one file per key
			Transform: func(s string) []string {
				return []string{}
			},
			CacheSizeMax: 0,
			Compression:  diskv.NewGzipCompression(),
		}),
	}
}

// FileName returns the file name of the key in the storage directory.
func FileName(k storage.Key) string {
	return fmt.Sprintf("%s.%s", k.Path(), ext)
}

func (s *Storage) Store(k storage.Key, value interface{}) error {
	m, ok := value.(encoding.BinaryMarshaler)
	if !ok {
		return fmt.Errorf("value for '%s' is not binary marshaler: %T", k.Path(), value)
	}
	data, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("could not encode '%s': %w", k.Path(), err)
	}
	if err := s.store.Write(FileName(k), data); err != nil {
		return fmt.Errorf("could not write '%s' to '%s': %w", FileName(k), s.path, err)
	}
	log.Debug().Str("path", s.path).Str("file", FileName(k)).Int("bytes", len(data)).Msg("stored gz file")
	return nil
}

func (s *Storage) Load(k storage.Key, value interface{}) error {
	u, ok := value.(encoding.BinaryUnmarshaler)
	if !ok {
		return fmt.Errorf("value for '%s' is not binary unmarshaler: %T", k.Path(), value)
	}
	if !s.store.Has(FileName(k)) {
		return fmt.Errorf("could not find '%s' in '%s': %w", FileName(k), s.path, storage.NotFoundErr)
	}
	data, err := s.store.Read(FileName(k))
	if err != nil {
		return fmt.Errorf("could not read '%s': %v: %w", FileName(k), err, storage.CouldNotLoadErr)
	}
	if err := u.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("could not decode '%s': %v: %w", FileName(k), err, storage.CouldNotLoadErr)
	}
	return nil
}
