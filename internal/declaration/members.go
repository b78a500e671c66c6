package declaration

// Property is a property member as displayed: a getter that also has a
// setter of the same name is shown once, with HasSetter set.
type Property struct {
	*Declaration
	HasSetter bool
}

// Constructors returns the container's constructor members.
func (d *Declaration) Constructors() []*Declaration {
	return d.membersOf(KindConstructor)
}

// Methods returns the container's method members.
func (d *Declaration) Methods() []*Declaration {
	return d.membersOf(KindMethod)
}

func (d *Declaration) membersOf(kinds ...Kind) []*Declaration {
	var out []*Declaration
	for _, m := range d.Members {
		for _, k := range kinds {
			if m.Kind == k {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Properties returns field, getter and setter members in declaration order,
// folding each setter into the getter of the same name when one exists.
func (d *Declaration) Properties() []Property {
	members := d.membersOf(KindField, KindGetter, KindSetter)
	getters := make(map[string]int)
	for i, m := range members {
		if m.Kind == KindGetter {
			if _, seen := getters[m.Name]; !seen {
				getters[m.Name] = i
			}
		}
	}

	withSetter := make(map[int]bool)
	folded := make(map[int]bool)
	for i, m := range members {
		if m.Kind != KindSetter {
			continue
		}
		if g, ok := getters[m.Name]; ok {
			withSetter[g] = true
			folded[i] = true
		}
	}

	out := make([]Property, 0, len(members))
	for i, m := range members {
		if folded[i] {
			continue
		}
		out = append(out, Property{Declaration: m, HasSetter: withSetter[i]})
	}
	return out
}

// WithoutInherited returns a copy of d whose members exclude those annotated
// as overriding or inherited. d itself is not modified.
func (d *Declaration) WithoutInherited() *Declaration {
	if !d.IsContainer() {
		return d
	}
	cp := *d
	cp.Members = make([]*Declaration, 0, len(d.Members))
	for _, m := range d.Members {
		if m.HasAnnotation("override") || m.HasAnnotation("inherited") {
			continue
		}
		cp.Members = append(cp.Members, m)
	}
	return &cp
}
