// Package storage provides content-addressable storage for symdoc artifacts.
package storage

import (
	"context"
	"errors"
	"time"
)

// ObjectStore stores build artifacts by content hash. Named refs point at the
// current object of some kind, for example the latest registry snapshot of
// an output directory.
type ObjectStore interface {
	// Put stores an object and returns its content hash.
	// Storing an existing object bumps its reference count.
	Put(ctx context.Context, obj *Object) (hash string, err error)

	// Get retrieves an object by its content hash.
	// Returns ErrNotFound if the object doesn't exist.
	Get(ctx context.Context, hash string) (*Object, error)

	Exists(ctx context.Context, hash string) (bool, error)

	// Delete removes an object. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, hash string) error

	// List returns all object hashes of objectType, or all hashes when
	// objectType is empty.
	List(ctx context.Context, objectType ObjectType) ([]string, error)

	// SetRef points the named ref at hash.
	SetRef(ctx context.Context, name, hash string) error

	// Ref returns the hash a named ref points at, or "" when unset.
	Ref(ctx context.Context, name string) (string, error)

	Close() error
}

// Object represents a stored artifact with its metadata.
type Object struct {
	// Hash is the content hash (SHA256) of the data.
	Hash string

	Type ObjectType

	Size int64

	Data []byte

	Metadata Metadata
}

// Metadata stores object metadata.
type Metadata struct {
	CreatedAt    time.Time
	LastAccessed time.Time

	// RefCount counts how many times the same content was stored.
	RefCount int

	// Custom allows caller-defined tags.
	Custom map[string]string
}

// ObjectType identifies the kind of stored object.
type ObjectType string

const (
	// ObjectTypeRegistrySnapshot is a JSON encoded registry snapshot.
	ObjectTypeRegistrySnapshot ObjectType = "registry_snapshot"

	// ObjectTypeExtractorOutput is raw extractor output kept for debugging.
	ObjectTypeExtractorOutput ObjectType = "extractor_output"
)

// ErrNotFound is returned when an object doesn't exist.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	return "object not found: " + e.Hash
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
