package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FSStore is a filesystem-based implementation of ObjectStore.
// It stores objects in a content-addressable layout:
//
//	<cache_dir>/
//	  objects/
//	    ab/
//	      cd1234... (first 2 chars = subdir, rest = filename)
//	  refs/
//	    snapshot-<key> (file containing one object hash)
type FSStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFSStore creates a new filesystem-based object store.
func NewFSStore(basePath string) (*FSStore, error) {
	dirs := []string{
		filepath.Join(basePath, "objects"),
		filepath.Join(basePath, "refs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &FSStore{basePath: basePath}, nil
}

// Put stores an object and returns its content hash.
func (fs *FSStore) Put(_ context.Context, obj *Object) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	hash := obj.Hash
	if hash == "" {
		hash = contentHash(obj.Data)
	}

	objectPath := fs.objectPath(hash)
	if _, err := os.Stat(objectPath); err == nil {
		metadata, err := fs.readMetadata(hash)
		if err == nil {
			metadata.RefCount++
			metadata.LastAccessed = time.Now()
			if err := fs.writeMetadata(hash, metadata); err != nil {
				return hash, fmt.Errorf("update metadata: %w", err)
			}
		}
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(objectPath), 0o750); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(objectPath, obj.Data, 0o600); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	now := time.Now()
	metadata := Metadata{
		CreatedAt:    now,
		LastAccessed: now,
		RefCount:     1,
		Custom:       make(map[string]string, len(obj.Metadata.Custom)+1),
	}
	maps.Copy(metadata.Custom, obj.Metadata.Custom)
	metadata.Custom["object_type"] = string(obj.Type)

	if err := fs.writeMetadata(hash, metadata); err != nil {
		return hash, fmt.Errorf("write metadata: %w", err)
	}
	return hash, nil
}

// Get retrieves an object by its content hash.
func (fs *FSStore) Get(_ context.Context, hash string) (*Object, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	// #nosec G304 - objectPath is internal, constructed from the hash
	data, err := os.ReadFile(fs.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Hash: hash}
		}
		return nil, fmt.Errorf("read object: %w", err)
	}

	metadata, err := fs.readMetadata(hash)
	if err != nil {
		metadata = Metadata{Custom: make(map[string]string)}
	}

	return &Object{
		Hash:     hash,
		Type:     ObjectType(metadata.Custom["object_type"]),
		Size:     int64(len(data)),
		Data:     data,
		Metadata: metadata,
	}, nil
}

// Exists checks if an object with the given hash exists.
func (fs *FSStore) Exists(_ context.Context, hash string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if _, err := os.Stat(fs.objectPath(hash)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

// Delete removes an object by its content hash.
func (fs *FSStore) Delete(_ context.Context, hash string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.deleteUnlocked(hash)
}

// List returns all object hashes matching the given type filter.
func (fs *FSStore) List(_ context.Context, objectType ObjectType) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.listUnlocked(objectType)
}

// SetRef points the named ref at hash.
func (fs *FSStore) SetRef(_ context.Context, name, hash string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	path, err := fs.refPath(name)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(hash+"\n"), 0o600); err != nil {
		return fmt.Errorf("write ref %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit ref %s: %w", name, err)
	}
	return nil
}

// Ref returns the hash the named ref points at, or "" when unset.
func (fs *FSStore) Ref(_ context.Context, name string) (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	path, err := fs.refPath(name)
	if err != nil {
		return "", err
	}
	// #nosec G304 - refPath validates the ref name
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read ref %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Close releases resources.
func (fs *FSStore) Close() error {
	return nil
}

func (fs *FSStore) listUnlocked(objectType ObjectType) ([]string, error) {
	var hashes []string
	objectsDir := filepath.Join(fs.basePath, "objects")

	err := filepath.Walk(objectsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, ".meta.json") {
			return nil
		}
		relPath, err := filepath.Rel(objectsDir, path)
		if err != nil {
			return nil
		}
		hash := strings.ReplaceAll(relPath, string(filepath.Separator), "")

		if objectType != "" {
			metadata, err := fs.readMetadata(hash)
			if err != nil || ObjectType(metadata.Custom["object_type"]) != objectType {
				return nil
			}
		}
		hashes = append(hashes, hash)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk objects: %w", err)
	}
	return hashes, nil
}

func (fs *FSStore) deleteUnlocked(hash string) error {
	objectPath := fs.objectPath(hash)
	if err := os.Remove(objectPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound{Hash: hash}
		}
		return fmt.Errorf("delete object: %w", err)
	}

	_ = os.Remove(fs.metadataPath(hash))
	// Fails unless the shard directory is empty.
	_ = os.Remove(filepath.Dir(objectPath))
	return nil
}

func (fs *FSStore) objectPath(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(fs.basePath, "objects", hash)
	}
	return filepath.Join(fs.basePath, "objects", hash[:2], hash[2:])
}

func (fs *FSStore) metadataPath(hash string) string {
	return fs.objectPath(hash) + ".meta.json"
}

func (fs *FSStore) refPath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid ref name %q", name)
	}
	return filepath.Join(fs.basePath, "refs", name), nil
}

func (fs *FSStore) readMetadata(hash string) (Metadata, error) {
	// #nosec G304 - metadataPath is internal, constructed from the hash
	data, err := os.ReadFile(fs.metadataPath(hash))
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return metadata, nil
}

func (fs *FSStore) writeMetadata(hash string, metadata Metadata) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(fs.metadataPath(hash), data, 0o600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func contentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
