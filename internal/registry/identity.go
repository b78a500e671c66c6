package registry

import (
	"regexp"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

var symbolNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Identity names a symbol within a package.
type Identity struct {
	Package string `json:"package"`
	Name    string `json:"name"`
}

func (id Identity) String() string {
	if id.Package == "" {
		return id.Name
	}
	return id.Package + "." + id.Name
}

// ValidateName rejects symbol names that are not identifiers.
func ValidateName(name string) error {
	if !symbolNamePattern.MatchString(name) {
		return errors.ConfigError("invalid symbol name").
			WithContext("symbol", name).
			Build()
	}
	return nil
}
