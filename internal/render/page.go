package render

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/docs"
	"git.home.luguber.info/inful/symdoc/internal/registry"
)

// Resolver maps a {ref} target to the page and anchor documenting it.
type Resolver interface {
	Resolve(raw string) (registry.Target, bool)
}

// PageResult is a rendered page.
type PageResult struct {
	Content    []byte
	Unresolved []string
}

// Page renders a documentation page. decls holds the declaration for each
// of the page's directives, in order; a nil entry renders a notice instead.
// Frontmatter is copied unchanged.
func Page(p *docs.Page, decls []*declaration.Declaration, resolver Resolver, opts Options) PageResult {
	type replacement struct {
		start, end int
		text       string
	}
	var reps []replacement
	for i, d := range p.Directives {
		var decl *declaration.Declaration
		if i < len(decls) {
			decl = decls[i]
		}
		text := unavailable(d)
		if decl != nil {
			text = Markdown(decl, opts)
		}
		reps = append(reps, replacement{d.Start, d.End, text})
	}

	var result PageResult
	for _, ref := range p.References {
		link, ok := Link(resolver, p.ID, ref.Target)
		if !ok {
			result.Unresolved = append(result.Unresolved, ref.Target)
		}
		reps = append(reps, replacement{ref.Start, ref.End, link})
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].start < reps[j].start })

	var out bytes.Buffer
	out.Grow(len(p.Content))
	pos := 0
	for _, r := range reps {
		if r.start < pos {
			continue
		}
		out.Write(p.Content[pos:r.start])
		out.WriteString(r.text)
		pos = r.end
	}
	out.Write(p.Content[pos:])
	result.Content = out.Bytes()
	return result
}

// Link renders a {ref} target seen on page from. Unknown targets render as
// an unresolved placeholder and ok is false.
func Link(resolver Resolver, from, raw string) (link string, ok bool) {
	target, found := resolver.Resolve(raw)
	if !found || target.PageID == "" {
		return fmt.Sprintf("`%s` (unresolved)", raw), false
	}
	return fmt.Sprintf("[%s](%s#%s)", Escape(raw), PagePath(from, target.PageID), AnchorID(target.Anchor)), true
}

// PagePath returns the output path of page to relative to page from.
func PagePath(from, to string) string {
	fromDir := path.Dir(from)
	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(to))
	if err != nil {
		return to + ".md"
	}
	return filepath.ToSlash(rel) + ".md"
}

func unavailable(d docs.Directive) string {
	return fmt.Sprintf("> **%s** could not be documented from `%s`.\n", Escape(d.Symbol), d.File)
}
