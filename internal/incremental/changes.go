package incremental

import (
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// ChangeSet holds the pages whose content changed directly between builds.
// The three sets are disjoint.
type ChangeSet struct {
	Added   sets.Set[string]
	Changed sets.Set[string]
	Removed sets.Set[string]
}

// Explicit returns the union of all three sets.
func (c ChangeSet) Explicit() sets.Set[string] {
	return sets.Union(c.Added, c.Changed, c.Removed)
}

// Empty reports whether no page changed.
func (c ChangeSet) Empty() bool {
	return c.Added.Len() == 0 && c.Changed.Len() == 0 && c.Removed.Len() == 0
}

// DiffPages compares page fingerprints of the previous and the current build.
func DiffPages(previous, current map[string]string) ChangeSet {
	cs := ChangeSet{
		Added:   sets.New[string](),
		Changed: sets.New[string](),
		Removed: sets.New[string](),
	}
	for id, fp := range current {
		prev, ok := previous[id]
		switch {
		case !ok:
			cs.Added.Add(id)
		case prev != fp:
			cs.Changed.Add(id)
		}
	}
	for id := range previous {
		if _, ok := current[id]; !ok {
			cs.Removed.Add(id)
		}
	}
	return cs
}

// Fingerprints returns the page fingerprints recorded in reg.
func Fingerprints(reg *registry.Registry) map[string]string {
	out := make(map[string]string)
	for _, p := range reg.Pages() {
		out[p.ID] = p.Fingerprint
	}
	return out
}
