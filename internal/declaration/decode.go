package declaration

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireDeclaration is the loosely-typed shape emitted by the extractor.
type wireDeclaration struct {
	Kind           string            `json:"kind"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	TypeParameters []TypeParameter   `json:"typeParameters"`
	Annotations    []annotation      `json:"annotations"`
	Extends        stringList        `json:"extends"`
	On             stringList        `json:"on"`
	Implements     stringList        `json:"implements"`
	With           stringList        `json:"with"`
	Members        []json.RawMessage `json:"members"`
	Parameters     *Parameters       `json:"parameters"`
	Returns        string            `json:"returns"`
	Type           string            `json:"type"`
}

// stringList accepts either a JSON string or a list of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*s = many
	return nil
}

// annotation accepts either a bare string or an object with a name.
type annotation string

func (a *annotation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*a = annotation(name)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("expected annotation string or object: %w", err)
	}
	*a = annotation(obj.Name)
	return nil
}

// Decode parses a single declaration tree.
func Decode(data []byte) (*Declaration, error) {
	var d Declaration
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UnmarshalJSON decodes and validates a declaration, keeping only the fields
// meaningful for its kind.
func (d *Declaration) UnmarshalJSON(data []byte) error {
	var w wireDeclaration
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseKind(w.Kind)
	if err != nil {
		if w.Name != "" {
			return fmt.Errorf("declaration %q: %w", w.Name, err)
		}
		return err
	}
	if w.Name == "" {
		return fmt.Errorf("%s declaration without a name", kind)
	}

	out := Declaration{
		Kind:           kind,
		Name:           w.Name,
		Description:    w.Description,
		TypeParameters: w.TypeParameters,
	}
	for _, a := range w.Annotations {
		out.Annotations = append(out.Annotations, string(a))
	}

	switch kind.Group() {
	case GroupContainer:
		out.Extends = w.Extends
		out.On = w.On
		out.Implements = w.Implements
		out.With = w.With
		for i, raw := range w.Members {
			member, err := Decode(raw)
			if err != nil {
				return fmt.Errorf("%s %s: member %d: %w", kind, w.Name, i, err)
			}
			if member.IsContainer() {
				return fmt.Errorf("%s %s: member %s cannot be a %s", kind, w.Name, member.Name, member.Kind)
			}
			out.Members = append(out.Members, member)
		}
	case GroupCallable:
		out.Parameters = w.Parameters
		out.Returns = w.Returns
	case GroupProperty:
		out.Type = w.Type
		out.Returns = w.Returns
		out.Parameters = w.Parameters
	}

	if p := out.Parameters; p != nil {
		if p.Positional < 0 || p.Named < 0 || p.Positional+p.Named > len(p.All) {
			return fmt.Errorf("%s %s: parameter counts exceed parameter list", kind, w.Name)
		}
		if p.Positional > 0 && p.Named > 0 {
			return fmt.Errorf("%s %s: cannot mix optional positional and named parameters", kind, w.Name)
		}
	}

	*d = out
	return nil
}
