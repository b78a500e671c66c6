package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/docs"
	"git.home.luguber.info/inful/symdoc/internal/incremental"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// Plan is the work a build would do.
type Plan struct {
	// Registry is the starting registry: the last snapshot, or empty.
	Registry    *registry.Registry
	Incremental bool
	// Pages holds every current page in queue order.
	Pages   []*docs.Page
	Changes incremental.ChangeSet
	Stale   sets.Set[string]
	// Queue holds the pages the read phase processes, in queue order.
	Queue []*docs.Page
}

// Empty reports whether the plan has nothing to read or remove.
func (p *Plan) Empty() bool {
	return len(p.Queue) == 0 && p.Changes.Removed.Len() == 0
}

// Plan discovers pages and computes the read queue without building.
func (s *Service) Plan(ctx context.Context, req Request) (*Plan, error) {
	start := time.Now()
	defer func() { s.recorder.ObserveStageDuration("plan", time.Since(start)) }()

	prev, found, err := s.snapshots.Latest(ctx, s.cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	pages, err := docs.Discover(s.cfg.PagesDir)
	if err != nil {
		return nil, err
	}

	current := make(map[string]string, len(pages))
	for _, p := range pages {
		current[p.ID] = p.Fingerprint
	}
	plan := &Plan{
		Registry:    prev,
		Incremental: found && !req.Full,
		Pages:       pages,
		Changes:     incremental.DiffPages(incremental.Fingerprints(prev), current),
		Stale:       sets.New[string](),
	}

	if req.Full {
		// Everything still present is re-read against an empty cache.
		for _, p := range pages {
			if !plan.Changes.Added.Has(p.ID) {
				plan.Changes.Changed.Add(p.ID)
			}
		}
		plan.Registry = registry.New()
	} else {
		plan.Stale = s.tracker.StalePages(prev, plan.Changes.Added, plan.Changes.Changed, plan.Changes.Removed)
		explicit := sets.Union(plan.Changes.Added, plan.Changes.Changed, plan.Stale)
		for _, id := range s.undocumentedPages(prev, pages, explicit) {
			plan.Stale.Add(id)
		}
	}

	queued := sets.Union(plan.Changes.Added, plan.Changes.Changed, plan.Stale)
	for _, p := range pages {
		if queued.Has(p.ID) {
			plan.Queue = append(plan.Queue, p)
		}
	}
	return plan, nil
}

// undocumentedPages returns the ids of pages outside skip with a directive
// whose symbol has no record in reg. That happens when another page took
// over the symbol and later stopped declaring it: the page never changed,
// but it has to be read again to own the symbol.
func (s *Service) undocumentedPages(reg *registry.Registry, pages []*docs.Page, skip sets.Set[string]) []string {
	var ids []string
	for _, p := range pages {
		if p.Err != nil || skip.Has(p.ID) {
			continue
		}
		for _, d := range p.Directives {
			if _, ok := reg.Record(s.identity(p, d)); !ok {
				ids = append(ids, p.ID)
				break
			}
		}
	}
	return ids
}
