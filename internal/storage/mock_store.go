package storage

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// MockStore is an in-memory implementation of ObjectStore for testing.
type MockStore struct {
	mu      sync.RWMutex
	objects map[string]*Object
	refs    map[string]string
	calls   MockCalls

	// PutErr, when set, is returned by every Put.
	PutErr error
}

// MockCalls tracks method invocations for test verification.
type MockCalls struct {
	Put    int
	Get    int
	Exists int
	Delete int
	List   int
	SetRef int
	Ref    int
}

// NewMockStore creates a new in-memory object store.
func NewMockStore() *MockStore {
	return &MockStore{
		objects: make(map[string]*Object),
		refs:    make(map[string]string),
	}
}

// Put stores an object and returns its content hash.
func (m *MockStore) Put(_ context.Context, obj *Object) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++
	if m.PutErr != nil {
		return "", m.PutErr
	}

	hash := obj.Hash
	if hash == "" {
		hash = contentHash(obj.Data)
	}

	if existing, ok := m.objects[hash]; ok {
		existing.Metadata.RefCount++
		existing.Metadata.LastAccessed = time.Now()
		return hash, nil
	}

	now := time.Now()
	m.objects[hash] = &Object{
		Hash: hash,
		Type: obj.Type,
		Size: int64(len(obj.Data)),
		Data: append([]byte(nil), obj.Data...),
		Metadata: Metadata{
			CreatedAt:    now,
			LastAccessed: now,
			RefCount:     1,
			Custom:       maps.Clone(obj.Metadata.Custom),
		},
	}
	return hash, nil
}

// Get retrieves a copy of an object by its content hash.
func (m *MockStore) Get(_ context.Context, hash string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++

	obj, ok := m.objects[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	obj.Metadata.LastAccessed = time.Now()

	result := *obj
	result.Data = append([]byte(nil), obj.Data...)
	result.Metadata.Custom = maps.Clone(obj.Metadata.Custom)
	return &result, nil
}

// Exists checks if an object with the given hash exists.
func (m *MockStore) Exists(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Exists++

	_, ok := m.objects[hash]
	return ok, nil
}

// Delete removes an object by its content hash.
func (m *MockStore) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Delete++

	if _, ok := m.objects[hash]; !ok {
		return ErrNotFound{Hash: hash}
	}
	delete(m.objects, hash)
	return nil
}

// List returns all object hashes matching the given type filter.
func (m *MockStore) List(_ context.Context, objectType ObjectType) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.List++

	var hashes []string
	for hash, obj := range m.objects {
		if objectType == "" || obj.Type == objectType {
			hashes = append(hashes, hash)
		}
	}
	return hashes, nil
}

// SetRef points the named ref at hash.
func (m *MockStore) SetRef(_ context.Context, name, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.SetRef++
	m.refs[name] = hash
	return nil
}

// Ref returns the hash the named ref points at.
func (m *MockStore) Ref(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Ref++
	return m.refs[name], nil
}

// Close releases resources (no-op for mock).
func (m *MockStore) Close() error {
	return nil
}

// GetCalls returns the number of times each method was called.
func (m *MockStore) GetCalls() MockCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Size returns the number of stored objects.
func (m *MockStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// String returns a string representation for debugging.
func (m *MockStore) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("MockStore{objects: %d, refs: %d, calls: %+v}", len(m.objects), len(m.refs), m.calls)
}
