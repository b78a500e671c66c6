package config

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// Validate checks a defaulted configuration.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return invalid("workers", "workers must be at least 1")
	}
	for pkg, dir := range c.Roots {
		if strings.TrimSpace(pkg) == "" {
			return invalid("roots", "package names in roots must not be empty")
		}
		if strings.TrimSpace(dir) == "" {
			return invalid("roots", "root directory of package "+pkg+" is empty")
		}
	}
	if c.DefaultPackage != "" {
		if _, ok := c.Roots[c.DefaultPackage]; !ok {
			return invalid("default_package", "default_package must be listed in roots")
		}
	}
	if !slices.ContainsFunc(c.Parser.Command, func(arg string) bool { return strings.Contains(arg, "{file}") }) {
		return invalid("parser.command", "parser.command must reference {file}")
	}
	if c.Parser.Timeout < 0 {
		return invalid("parser.timeout", "parser.timeout must be positive")
	}
	if c.Watch.Debounce < 0 || c.Watch.SweepInterval < 0 {
		return invalid("watch", "watch intervals must be positive")
	}
	return nil
}

func invalid(field, message string) error {
	return errors.ConfigError(message).WithContext("field", field).Build()
}
