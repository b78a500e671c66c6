package extractor

import (
	"encoding/json"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

const maxQuotedOutput = 100

type compilationUnit struct {
	Declarations []json.RawMessage `json:"declarations"`
}

// ParseOutput finds the declaration named symbol in the tool output. The
// output must be a JSON array with exactly one element holding a
// "declarations" list. Only the matching entry is decoded, so siblings of
// kinds this package does not model do not fail the lookup.
func ParseOutput(raw []byte, symbol string) (*declaration.Declaration, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || len(top) != 1 {
		return nil, errors.MalformedOutputError("invalid extractor output: a list of length 1 was expected").
			WithCause(err).
			WithContext("output", quote(raw)).
			Build()
	}

	var unit compilationUnit
	if err := json.Unmarshal(top[0], &unit); err != nil || unit.Declarations == nil {
		return nil, errors.MalformedOutputError("invalid extractor output: missing declarations list").
			WithCause(err).
			WithContext("output", quote(raw)).
			Build()
	}

	available := make([]string, 0, len(unit.Declarations))
	for _, entry := range unit.Declarations {
		var head struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(entry, &head); err != nil {
			return nil, errors.MalformedOutputError("invalid extractor output: declaration is not an object").
				WithCause(err).
				WithContext("output", quote(entry)).
				Build()
		}
		if head.Name != symbol {
			available = append(available, head.Name)
			continue
		}
		decl, err := declaration.Decode(entry)
		if err != nil {
			return nil, errors.MalformedOutputError("invalid declaration in extractor output").
				WithCause(err).
				WithContext("symbol", symbol).
				WithContext("output", quote(entry)).
				Build()
		}
		return decl, nil
	}

	return nil, errors.SymbolNotFoundError("symbol was not found in source file").
		WithContext("symbol", symbol).
		WithContext("available", available).
		Build()
}

func quote(raw []byte) string {
	s := []rune(string(raw))
	if len(s) > maxQuotedOutput {
		return string(s[:maxQuotedOutput-3]) + "..."
	}
	return string(s)
}
