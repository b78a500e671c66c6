package render

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
)

// Options controls declaration rendering.
type Options struct {
	// FilterInherited hides members annotated as overriding or inherited.
	FilterInherited bool
}

// Markdown renders a declaration and its members as a Markdown fragment.
func Markdown(d *declaration.Declaration, opts Options) string {
	w := &writer{opts: opts, symbol: d.Name}
	w.declaration(d, 1)
	return w.b.String()
}

type writer struct {
	b      strings.Builder
	opts   Options
	symbol string
}

func (w *writer) declaration(d *declaration.Declaration, level int) {
	if w.opts.FilterInherited {
		d = d.WithoutInherited()
	}

	anchor := w.symbol
	if level > 1 {
		anchor = w.symbol + "-" + d.Name
	}
	fmt.Fprintf(&w.b, "%s %s {#%s}\n\n", heading(2*level), Escape(signature(d)), AnchorID(anchor))

	if d.IsContainer() {
		w.modifiers(d)
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		w.b.WriteString(desc)
		w.b.WriteString("\n\n")
	}
	if !d.IsContainer() {
		return
	}

	if ctors := d.Constructors(); len(ctors) > 0 {
		w.section("Constructors", level)
		for _, c := range ctors {
			w.declaration(c, level+1)
		}
	}
	if props := d.Properties(); len(props) > 0 {
		w.section("Properties", level)
		for _, p := range props {
			w.property(p, level+1)
		}
	}
	if methods := d.Methods(); len(methods) > 0 {
		w.section("Methods", level)
		for _, m := range methods {
			w.declaration(m, level+1)
		}
	}
}

func (w *writer) property(p declaration.Property, level int) {
	anchor := AnchorID(w.symbol + "-" + p.Name)
	fmt.Fprintf(&w.b, "%s %s {#%s}\n\n", heading(2*level), Escape(propertySignature(p)), anchor)
	if desc := strings.TrimSpace(p.Description); desc != "" {
		w.b.WriteString(desc)
		w.b.WriteString("\n\n")
	}
}

func (w *writer) section(title string, level int) {
	fmt.Fprintf(&w.b, "%s %s\n\n", heading(2*level+1), title)
}

func (w *writer) modifiers(d *declaration.Declaration) {
	for _, m := range []struct {
		keyword string
		targets []string
	}{
		{"extends", d.Extends},
		{"on", d.On},
		{"implements", d.Implements},
		{"with", d.With},
	} {
		if len(m.targets) == 0 {
			continue
		}
		fmt.Fprintf(&w.b, "**%s** %s\n\n", m.keyword, Escape(strings.Join(m.targets, ", ")))
	}
}

func signature(d *declaration.Declaration) string {
	switch {
	case d.IsContainer():
		return d.Kind.String() + " " + d.Name + typeParameters(d.TypeParameters)
	case d.IsCallable():
		sig := d.Name + typeParameters(d.TypeParameters) + parameters(d.Parameters)
		if d.Returns != "" && d.Returns != "void" {
			sig += " → " + d.Returns
		}
		return sig
	}
	return propertySignature(declaration.Property{Declaration: d})
}

func propertySignature(p declaration.Property) string {
	arrow := ":"
	switch p.Kind {
	case declaration.KindGetter:
		arrow = "→"
		if p.HasSetter {
			arrow = "←→"
		}
	case declaration.KindSetter:
		arrow = "←"
	}
	return p.Name + " " + arrow + " " + p.ValueType()
}

func typeParameters(params []declaration.TypeParameter) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for _, tp := range params {
		if tp.Extends != "" {
			parts = append(parts, tp.Name+" extends "+tp.Extends)
			continue
		}
		parts = append(parts, tp.Name)
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// parameters lays out a parameter list, wrapping optional positional
// parameters in [] and named parameters in {}.
func parameters(p *declaration.Parameters) string {
	if p == nil {
		return "()"
	}
	open, closing, optional := "", "", 0
	switch {
	case p.Positional > 0:
		open, closing, optional = "[", "]", p.Positional
	case p.Named > 0:
		open, closing, optional = "{", "}", p.Named
	}
	first := len(p.All) - optional

	var b strings.Builder
	b.WriteString("(")
	for i, param := range p.All {
		if i > 0 {
			b.WriteString(", ")
		}
		if optional > 0 && i == first {
			b.WriteString(open)
		}
		if param.Type != "" {
			b.WriteString(param.Type)
			b.WriteString(" ")
		}
		b.WriteString(param.Name)
		if param.Default != "" {
			b.WriteString(" = ")
			b.WriteString(param.Default)
		}
	}
	if optional > 0 && first >= 0 {
		b.WriteString(closing)
	}
	b.WriteString(")")
	return b.String()
}

func heading(depth int) string {
	if depth > 6 {
		depth = 6
	}
	return strings.Repeat("#", depth)
}

const metacharacters = "\\`*_{}[]<>#|!"

// Escape backslash-escapes Markdown metacharacters in s.
func Escape(s string) string {
	if !strings.ContainsAny(s, metacharacters) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(metacharacters, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AnchorID reduces s to characters that are safe inside a heading id.
func AnchorID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}
