package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/drakos74/astroturf/internal/storage"
	"github.com/rs/zerolog/log"
)

// BlobStorage stores every key as a json file in one directory.
type BlobStorage struct {
	path  string
	debug bool
}

// BlobShard creates json blob storages.
func BlobShard(debug bool) storage.Shard {
	return func(dir string) (storage.Persistence, error) {
		return NewJsonBlob(dir, debug), nil
	}
}

// NewJsonBlob creates a json storage under the given directory.
func NewJsonBlob(dir string, debug bool) *BlobStorage {
	if dir == "" {
		dir = storage.DefaultDir
	}
	return &BlobStorage{
		path:  dir,
		debug: debug,
	}
}

func (s BlobStorage) Store(k storage.Key, value interface{}) error {
	err := Save(s.path, k.Path(), value)
	if err == nil && s.debug {
		log.Info().Str("path", s.path).Str("file", k.Path()).Msg("stored json file")
	}
	return err
}

func (s BlobStorage) Load(k storage.Key, value interface{}) error {
	return Load(s.path, k.Path(), value)
}

// Save saves the given json struct into the given path with the provided filename.
func Save(filePath string, fileName string, value interface{}) error {
	// check if filepath exists
	info, err := os.Stat(filePath)
	if err != nil {
		err := os.MkdirAll(filePath, os.ModePerm)
		if err != nil {
			return fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("path given is not a directory: %s: %w", filePath, storage.UnrecoverableErr)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode '%s': %w", fileName, err)
	}

	// create the output file
	p := filepath.Join(filePath, fmt.Sprintf("%s.json", fileName))
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("could not create file '%s': %w", p, err)
	}
	defer f.Close()

	// write the file
	_, err = f.Write(b)
	if err != nil {
		return fmt.Errorf("could not write bytes to file '%s': %w", p, err)
	}

	return nil
}

// Load loads the payload from the given filePath and fileName.
func Load(filePath string, fileName string, value interface{}) error {
	p := filepath.Join(filePath, fmt.Sprintf("%s.json", fileName))
	data, err := ioutil.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not find file '%s': %w", p, storage.NotFoundErr)
		}
		return fmt.Errorf("could not read file '%s': %v: %w", p, err, storage.CouldNotLoadErr)
	}

	err = json.Unmarshal(data, value)
	if err != nil {
		return fmt.Errorf("could not unmarshal '%s': '%v': %w", fileName, err, storage.CouldNotLoadErr)
	}

	return nil
}
