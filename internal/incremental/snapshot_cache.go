package incremental

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/storage"
)

// SnapshotCache persists the registry of the last build per output directory.
type SnapshotCache struct {
	store  storage.ObjectStore
	logger *slog.Logger
}

// NewSnapshotCache creates a new snapshot cache.
func NewSnapshotCache(store storage.ObjectStore) *SnapshotCache {
	return &SnapshotCache{
		store:  store,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (c *SnapshotCache) WithLogger(logger *slog.Logger) *SnapshotCache {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func refName(outputDir string) string {
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	h := sha256.Sum256([]byte(outputDir))
	return "snapshot-" + hex.EncodeToString(h[:8])
}

// Latest returns the last saved registry for outputDir. When nothing usable
// is stored it returns an empty registry and false.
func (c *SnapshotCache) Latest(ctx context.Context, outputDir string) (*registry.Registry, bool, error) {
	hash, err := c.store.Ref(ctx, refName(outputDir))
	if err != nil {
		return nil, false, errors.WrapError(err, errors.CategoryStorage, "failed to read snapshot ref").
			WithContext("output", outputDir).
			Build()
	}
	if hash == "" {
		return registry.New(), false, nil
	}

	obj, err := c.store.Get(ctx, hash)
	if err != nil {
		if storage.IsNotFound(err) {
			c.logger.Warn("Snapshot ref points at a missing object", "hash", hash, "output", outputDir)
			return registry.New(), false, nil
		}
		return nil, false, errors.WrapError(err, errors.CategoryStorage, "failed to load snapshot").
			WithContext("hash", hash).
			Build()
	}

	reg, err := registry.UnmarshalSnapshot(obj.Data)
	if err != nil {
		c.logger.Warn("Discarding unreadable snapshot", "hash", hash, "error", err)
		return registry.New(), false, nil
	}
	return reg, true, nil
}

// Save stores reg as the latest snapshot for outputDir and drops the one it
// replaces.
func (c *SnapshotCache) Save(ctx context.Context, outputDir string, reg *registry.Registry) (string, error) {
	data, err := reg.MarshalSnapshot()
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to encode snapshot").Build()
	}

	name := refName(outputDir)
	previous, err := c.store.Ref(ctx, name)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryStorage, "failed to read snapshot ref").Build()
	}

	hash, err := c.store.Put(ctx, &storage.Object{
		Type: storage.ObjectTypeRegistrySnapshot,
		Data: data,
		Metadata: storage.Metadata{Custom: map[string]string{
			"output": outputDir,
		}},
	})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryStorage, "failed to store snapshot").Build()
	}
	if err := c.store.SetRef(ctx, name, hash); err != nil {
		return "", errors.WrapError(err, errors.CategoryStorage, "failed to update snapshot ref").Build()
	}

	if previous != "" && previous != hash {
		if err := c.store.Delete(ctx, previous); err != nil && !storage.IsNotFound(err) {
			c.logger.Warn("Failed to delete replaced snapshot", "hash", previous, "error", err)
		}
	}
	c.logger.Debug("Saved registry snapshot", "hash", hash, "records", reg.Len(), "output", outputDir)
	return hash, nil
}
