package registry

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// Registry is the symbol cache and page index of one build.
// It is not safe for concurrent use; each worker owns its own copy.
type Registry struct {
	packages []string
	symbols  map[string]map[string]*Record
	pages    map[string]*Page
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		symbols: make(map[string]map[string]*Record),
		pages:   make(map[string]*Page),
	}
}

func (r *Registry) ensurePackage(pkg string) map[string]*Record {
	table, ok := r.symbols[pkg]
	if !ok {
		table = make(map[string]*Record)
		r.symbols[pkg] = table
		r.packages = append(r.packages, pkg)
	}
	return table
}

// Packages returns package names in insertion order.
func (r *Registry) Packages() []string {
	return append([]string(nil), r.packages...)
}

// Record returns the record for id.
func (r *Registry) Record(id Identity) (*Record, bool) {
	rec, ok := r.symbols[id.Package][id.Name]
	return rec, ok
}

// Records returns every record, ordered by package insertion order and then
// by symbol name.
func (r *Registry) Records() []*Record {
	var out []*Record
	for _, pkg := range r.packages {
		table := r.symbols[pkg]
		names := make([]string, 0, len(table))
		for name := range table {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, table[name])
		}
	}
	return out
}

// Len returns the number of symbol records.
func (r *Registry) Len() int {
	n := 0
	for _, table := range r.symbols {
		n += len(table)
	}
	return n
}

// Upsert stores rec, making rec.OwningPage the owner of its identity. A
// previous owner on another page loses the symbol.
func (r *Registry) Upsert(rec *Record) {
	table := r.ensurePackage(rec.Identity.Package)
	if prev, ok := table[rec.Identity.Name]; ok && prev.OwningPage != rec.OwningPage {
		if page, ok := r.pages[prev.OwningPage]; ok {
			page.removeSymbol(rec.Identity)
		}
	}
	table[rec.Identity.Name] = rec

	page, ok := r.pages[rec.OwningPage]
	if !ok {
		page = &Page{ID: rec.OwningPage, Package: rec.Identity.Package}
		r.pages[rec.OwningPage] = page
	}
	page.addSymbol(rec.Identity)
}

// SetPage stores the page record, replacing any previous one with the same id.
func (r *Registry) SetPage(p *Page) {
	r.pages[p.ID] = p
}

// Page returns the page record for id.
func (r *Registry) Page(id string) (*Page, bool) {
	p, ok := r.pages[id]
	return p, ok
}

// Pages returns every page record ordered by id.
func (r *Registry) Pages() []*Page {
	out := make([]*Page, 0, len(r.pages))
	for _, p := range r.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PageIDs returns the set of known page ids.
func (r *Registry) PageIDs() sets.Set[string] {
	out := make(sets.Set[string], len(r.pages))
	for id := range r.pages {
		out.Add(id)
	}
	return out
}

// ResolveDeclaration returns the cached declaration for id. Asking for a symbol that
// was never successfully scanned is an internal error: callers must go
// through the extractor first.
func (r *Registry) ResolveDeclaration(id Identity) (*declaration.Declaration, error) {
	rec, ok := r.Record(id)
	if !ok {
		return nil, errors.InternalError("symbol is not registered").
			WithContext("symbol", id.String()).
			Build()
	}
	if rec.Declaration == nil {
		return nil, errors.InternalError("symbol was never scanned").
			WithContext("symbol", id.String()).
			WithContext("source", rec.SourcePath).
			Build()
	}
	return rec.Declaration, nil
}

// Target is the page and in-page anchor a cross reference resolves to.
type Target struct {
	Identity Identity
	PageID   string
	Anchor   string
}

// Resolve looks up a cross reference. raw is either a bare symbol name or
// "Symbol-member"; only the part before the first '-' is looked up and the
// full raw string becomes the anchor. Packages are searched in insertion
// order and the first match wins.
func (r *Registry) Resolve(raw string) (Target, bool) {
	name := raw
	if i := strings.IndexByte(raw, '-'); i >= 0 {
		name = raw[:i]
	}
	for _, pkg := range r.packages {
		if rec, ok := r.symbols[pkg][name]; ok {
			return Target{Identity: rec.Identity, PageID: rec.OwningPage, Anchor: raw}, true
		}
	}
	return Target{}, false
}

// Purge removes the page record for pageID and every symbol it owns.
// Purging an unknown page is a no-op.
func (r *Registry) Purge(pageID string) {
	for _, table := range r.symbols {
		for name, rec := range table {
			if rec.OwningPage == pageID {
				delete(table, name)
			}
		}
	}
	delete(r.pages, pageID)
}

// Reconcile removes records owned by pageID that its page record no longer
// lists. A page being re-read gets a fresh page record via SetPage; symbols it
// declares again are re-listed by Upsert, so after the page is processed
// Reconcile drops only what the page stopped declaring. Unlike Purge, it keeps
// cached declarations of symbols that are still declared.
func (r *Registry) Reconcile(pageID string) {
	page, ok := r.pages[pageID]
	if !ok {
		r.Purge(pageID)
		return
	}
	listed := sets.New(page.Symbols...)
	for _, table := range r.symbols {
		for name, rec := range table {
			if rec.OwningPage == pageID && !listed.Has(rec.Identity) {
				delete(table, name)
			}
		}
	}
}

// Merge copies into r every record of other owned by a page in scope and
// every page record of other keyed by a page in scope. Everything else in
// other is ignored. The last merge wins for overlapping scopes.
func (r *Registry) Merge(other *Registry, scope sets.Set[string]) {
	for _, pkg := range other.packages {
		for _, rec := range other.symbols[pkg] {
			if !scope.Has(rec.OwningPage) {
				continue
			}
			table := r.ensurePackage(pkg)
			if prev, ok := table[rec.Identity.Name]; ok && prev.OwningPage != rec.OwningPage {
				if page, ok := r.pages[prev.OwningPage]; ok && !scope.Has(page.ID) {
					page.removeSymbol(rec.Identity)
				}
			}
			table[rec.Identity.Name] = rec.clone()
		}
	}
	for id, page := range other.pages {
		if scope.Has(id) {
			r.pages[id] = page.clone()
		}
	}
}

// Clone returns a deep copy of the registry structure. Declarations are
// shared; they are read-only.
func (r *Registry) Clone() *Registry {
	cp := New()
	cp.packages = append(cp.packages, r.packages...)
	for pkg, table := range r.symbols {
		dst := make(map[string]*Record, len(table))
		for name, rec := range table {
			dst[name] = rec.clone()
		}
		cp.symbols[pkg] = dst
	}
	for id, page := range r.pages {
		cp.pages[id] = page.clone()
	}
	return cp
}
