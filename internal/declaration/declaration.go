package declaration

// Declaration is one node of the extracted declaration tree.
type Declaration struct {
	Kind           Kind            `json:"kind"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	TypeParameters []TypeParameter `json:"typeParameters,omitempty"`
	Annotations    []string        `json:"annotations,omitempty"`

	// Container modifiers.
	Extends    []string       `json:"extends,omitempty"`
	On         []string       `json:"on,omitempty"`
	Implements []string       `json:"implements,omitempty"`
	With       []string       `json:"with,omitempty"`
	Members    []*Declaration `json:"members,omitempty"`

	// Callables, and setters (whose single parameter carries the type).
	Parameters *Parameters `json:"parameters,omitempty"`
	Returns    string      `json:"returns,omitempty"`

	// Properties.
	Type string `json:"type,omitempty"`
}

// TypeParameter is a generic type parameter with an optional bound.
type TypeParameter struct {
	Name    string `json:"name"`
	Extends string `json:"extends,omitempty"`
}

// Parameters lists a callable's parameters. The last Positional entries of
// All are optional positional parameters; the last Named entries are named.
// A callable never has both.
type Parameters struct {
	All        []Parameter `json:"all"`
	Positional int         `json:"positional,omitempty"`
	Named      int         `json:"named,omitempty"`
}

// Parameter is a single callable parameter.
type Parameter struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default string `json:"default,omitempty"`
}

// Simple returns the number of required positional parameters.
func (p *Parameters) Simple() int {
	if p == nil {
		return 0
	}
	n := len(p.All) - p.Positional - p.Named
	if n < 0 {
		return 0
	}
	return n
}

// IsContainer reports whether d is a class, mixin or extension.
func (d *Declaration) IsContainer() bool { return d.Kind.Group() == GroupContainer }

// IsCallable reports whether d is a constructor, method or function.
func (d *Declaration) IsCallable() bool { return d.Kind.Group() == GroupCallable }

// IsProperty reports whether d is a field, getter or setter.
func (d *Declaration) IsProperty() bool { return d.Kind.Group() == GroupProperty }

// HasAnnotation reports whether d carries the annotation (with or without '@').
func (d *Declaration) HasAnnotation(name string) bool {
	for _, a := range d.Annotations {
		if a == name || a == "@"+name {
			return true
		}
	}
	return false
}

// ValueType returns the displayed type of a property: its declared type,
// otherwise its return type, otherwise the type of its single parameter.
func (d *Declaration) ValueType() string {
	switch {
	case d.Type != "":
		return d.Type
	case d.Returns != "":
		return d.Returns
	case d.Parameters != nil && len(d.Parameters.All) > 0:
		return d.Parameters.All[0].Type
	}
	return ""
}

// MemberNames returns the names of d's members in declaration order.
func (d *Declaration) MemberNames() []string {
	names := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		names = append(names, m.Name)
	}
	return names
}
