package config

import (
	"runtime"
	"time"
)

// DefaultParserCommand runs the Dart declaration parser.
var DefaultParserCommand = []string{"dart", "run", "dartdoc_json.dart", "{file}", "--output", "{output}"}

const (
	defaultPagesDir      = "docs"
	defaultOutputDir     = "build"
	defaultCacheDir      = ".symdoc"
	defaultParserTimeout = 2 * time.Minute
	defaultSubject       = "symdoc.builds"
	defaultDebounce      = 500 * time.Millisecond
	defaultSweepInterval = 5 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.PagesDir == "" {
		c.PagesDir = defaultPagesDir
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if len(c.Parser.Command) == 0 {
		c.Parser.Command = append([]string(nil), DefaultParserCommand...)
	}
	if c.Parser.Timeout == 0 {
		c.Parser.Timeout = Duration(defaultParserTimeout)
	}
	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		c.Events.Subject = defaultSubject
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(defaultDebounce)
	}
	if c.Watch.SweepInterval == 0 {
		c.Watch.SweepInterval = Duration(defaultSweepInterval)
	}
}
