package registry

import (
	"time"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
)

// Record is the cached extraction result for one symbol.
//
// When Declaration is non-nil, ScanTime is the modification time of
// SourcePath observed when exactly that declaration was extracted.
type Record struct {
	Identity    Identity                 `json:"identity"`
	Declaration *declaration.Declaration `json:"declaration,omitempty"`
	SourcePath  string                   `json:"source_path"`
	ScanTime    time.Time                `json:"scan_time"`
	OwningPage  string                   `json:"owning_page"`
}

// Fresh reports whether the record holds a declaration extracted from a
// source no newer than mtime.
func (r *Record) Fresh(mtime time.Time) bool {
	return r != nil && r.Declaration != nil && !r.ScanTime.Before(mtime)
}

func (r *Record) clone() *Record {
	cp := *r
	return &cp
}

// Page is the registry's view of one documentation page.
type Page struct {
	ID          string     `json:"id"`
	Package     string     `json:"package"`
	Symbols     []Identity `json:"symbols,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
}

func (p *Page) clone() *Page {
	cp := *p
	cp.Symbols = append([]Identity(nil), p.Symbols...)
	return &cp
}

func (p *Page) addSymbol(id Identity) {
	for _, s := range p.Symbols {
		if s == id {
			return
		}
	}
	p.Symbols = append(p.Symbols, id)
}

func (p *Page) removeSymbol(id Identity) {
	out := p.Symbols[:0]
	for _, s := range p.Symbols {
		if s != id {
			out = append(out, s)
		}
	}
	p.Symbols = out
}
