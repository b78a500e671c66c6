package registry

import (
	"encoding/json"
	"fmt"
)

// SnapshotVersion is bumped whenever the persisted layout changes.
const SnapshotVersion = 1

// Snapshot is the serializable form of a Registry.
type Snapshot struct {
	Version  int       `json:"version"`
	Packages []string  `json:"packages"`
	Records  []*Record `json:"records"`
	Pages    []*Page   `json:"pages"`
}

// Snapshot captures the registry for persistence.
func (r *Registry) Snapshot() *Snapshot {
	return &Snapshot{
		Version:  SnapshotVersion,
		Packages: r.Packages(),
		Records:  r.Records(),
		Pages:    r.Pages(),
	}
}

// FromSnapshot rebuilds a registry, preserving package order.
func FromSnapshot(s *Snapshot) (*Registry, error) {
	if s == nil {
		return New(), nil
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	r := New()
	for _, pkg := range s.Packages {
		r.ensurePackage(pkg)
	}
	for _, p := range s.Pages {
		r.pages[p.ID] = p.clone()
	}
	for _, rec := range s.Records {
		if err := ValidateName(rec.Identity.Name); err != nil {
			return nil, fmt.Errorf("snapshot record %s: %w", rec.Identity, err)
		}
		r.ensurePackage(rec.Identity.Package)[rec.Identity.Name] = rec.clone()
	}
	return r, nil
}

// MarshalSnapshot encodes the registry as JSON.
func (r *Registry) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(r.Snapshot())
}

// UnmarshalSnapshot decodes a registry from JSON produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*Registry, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromSnapshot(&s)
}
