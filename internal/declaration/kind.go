package declaration

import "fmt"

// Kind identifies the declaration variant.
type Kind string

const (
	KindClass       Kind = "class"
	KindMixin       Kind = "mixin"
	KindExtension   Kind = "extension"
	KindConstructor Kind = "constructor"
	KindMethod      Kind = "method"
	KindFunction    Kind = "function"
	KindField       Kind = "field"
	KindGetter      Kind = "getter"
	KindSetter      Kind = "setter"
)

// Group is the coarse shape shared by several kinds.
type Group int

const (
	GroupContainer Group = iota + 1
	GroupCallable
	GroupProperty
)

var kindGroups = map[Kind]Group{
	KindClass:       GroupContainer,
	KindMixin:       GroupContainer,
	KindExtension:   GroupContainer,
	KindConstructor: GroupCallable,
	KindMethod:      GroupCallable,
	KindFunction:    GroupCallable,
	KindField:       GroupProperty,
	KindGetter:      GroupProperty,
	KindSetter:      GroupProperty,
}

// ParseKind validates a raw kind string.
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if _, ok := kindGroups[k]; !ok {
		return "", fmt.Errorf("unknown declaration kind %q", raw)
	}
	return k, nil
}

// Group returns the kind's group, or 0 for an unknown kind.
func (k Kind) Group() Group { return kindGroups[k] }

func (k Kind) String() string { return string(k) }
