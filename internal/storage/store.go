package storage

import "errors"

var (
	// DefaultDir is the root directory for artifacts when none is given.
	DefaultDir = "file-storage"
)

// Shard creates a new storage implementation rooted at the given directory.
type Shard func(dir string) (Persistence, error)

var (
	// NotFoundErr signals a missing artifact.
	NotFoundErr = errors.New("not found")
	// CouldNotLoadErr signals an artifact that exists but cannot be decoded.
	CouldNotLoadErr = errors.New("could not load")
	// UnrecoverableErr signals a storage location that can never be written to.
	UnrecoverableErr = errors.New("unrecoverable error")
)

// Key is the storage key of a model artifact.
type Key struct {
	Name string `json:"name"`
}

// Path returns the file name of the artifact, without extension.
func (k Key) Path() string {
	return k.Name
}

// Persistence stores and loads values by key.
// Load returns NotFoundErr if nothing is stored for the key
// and CouldNotLoadErr if the stored value cannot be decoded.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
