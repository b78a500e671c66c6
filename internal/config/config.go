// Package config loads the symdoc project configuration.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "symdoc.yaml"

// Config represents the project configuration.
type Config struct {
	// DefaultPackage applies to directives that name no package.
	DefaultPackage string `yaml:"default_package,omitempty"`
	// Root resolves source files of directives without a package.
	Root string `yaml:"root,omitempty"`
	// Roots maps package names to their source root directories.
	Roots map[string]string `yaml:"roots,omitempty"`
	// FilterInherited drops members annotated @override or @inherited.
	FilterInherited bool `yaml:"filter_inherited"`

	PagesDir  string `yaml:"pages_dir"`
	OutputDir string `yaml:"output_dir"`
	CacheDir  string `yaml:"cache_dir"`
	Workers   int    `yaml:"workers"`

	Parser  ParserConfig  `yaml:"parser"`
	Events  EventsConfig  `yaml:"events"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`

	baseDir string
}

// ParserConfig configures the external extractor.
type ParserConfig struct {
	// Command is an argv template; {file} and {output} are substituted.
	Command []string `yaml:"command,flow"`
	Dir     string   `yaml:"dir,omitempty"`
	Timeout Duration `yaml:"timeout"`
}

// EventsConfig configures the build event log and notifications.
type EventsConfig struct {
	// Database is the SQLite event log path; empty disables the log.
	Database string `yaml:"database,omitempty"`
	// NATSURL enables build summaries on Subject when set.
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig configures `symdoc watch`.
type WatchConfig struct {
	Debounce      Duration `yaml:"debounce"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// MetricsConfig configures the Prometheus endpoint of watch mode.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Load reads, defaults and validates the configuration at configPath.
// Environment variables from .env files are loaded first and ${VAR}
// references in the file are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", configPath)
		}
		return nil, err
	}

	abs, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve config directory").Build()
	}
	cfg.resolvePaths(abs)
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates. Relative paths stay
// relative to the working directory.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Build()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths(base string) {
	c.baseDir = base
	abs := func(p string) string {
		if p == "" {
			return p
		}
		p = expandHome(p)
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}
	c.Root = abs(c.Root)
	for pkg, dir := range c.Roots {
		c.Roots[pkg] = abs(dir)
	}
	c.PagesDir = abs(c.PagesDir)
	c.OutputDir = abs(c.OutputDir)
	c.CacheDir = abs(c.CacheDir)
	c.Parser.Dir = abs(c.Parser.Dir)
	c.Events.Database = abs(c.Events.Database)
}

// PackageRoot returns the source root for pkg. The empty package uses Root,
// or the configuration directory when Root is unset.
func (c *Config) PackageRoot(pkg string) (string, error) {
	if pkg == "" {
		if c.Root != "" {
			return c.Root, nil
		}
		return c.baseDir, nil
	}
	root, ok := c.Roots[pkg]
	if !ok {
		return "", errors.ConfigError("unknown package name: add it to the roots setting").
			WithContext("package", pkg).
			Build()
	}
	return root, nil
}

// ResolveSource joins file onto the root of pkg and returns an absolute path.
// An absolute file is used as it is.
func (c *Config) ResolveSource(pkg, file string) (string, error) {
	root, err := c.PackageRoot(pkg)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(file) {
		return filepath.Clean(file), nil
	}
	path := expandHome(filepath.Join(root, file))
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.ConfigError("invalid source path").
			WithCause(err).
			WithContext("source", path).
			Build()
	}
	return abs, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
