package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/symdoc/internal/build"
	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/extractor"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/notify"
	"git.home.luguber.info/inful/symdoc/internal/storage"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"symdoc.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build documentation pages, rebuilding only what changed"`
	Stale   StaleCmd   `cmd:"" help:"Show which pages the next build would rebuild"`
	Resolve ResolveCmd `cmd:"" help:"Resolve cross references against the last build"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever pages or sources change"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the event log"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// environment owns the resources behind a build service.
type environment struct {
	cfg     *config.Config
	store   storage.ObjectStore
	service *build.Service
	closers []func() error
	logger  *slog.Logger
}

// openEnvironment loads the configuration and wires the build service to
// its snapshot store and extractor. With sinks set the event log and the
// notifier are connected as well.
func openEnvironment(configPath string, logger *slog.Logger, sinks bool) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, logger: logger}

	store, err := storage.NewFSStore(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	env.store = store
	env.closers = append(env.closers, store.Close)

	tool := extractor.NewCommandTool(cfg.Parser.Command).
		WithDir(cfg.Parser.Dir).
		WithTimeout(cfg.Parser.Timeout.Std()).
		WithLogger(logger)
	env.service = build.NewService(cfg, tool, store).WithLogger(logger)
	if !sinks {
		return env, nil
	}

	if cfg.Events.Database != "" {
		events, err := eventstore.NewSQLiteStore(cfg.Events.Database)
		if err != nil {
			env.close()
			return nil, err
		}
		env.closers = append(env.closers, events.Close)
		env.service.WithEventStore(events)
	}

	if cfg.Events.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			env.close()
			return nil, err
		}
		env.closers = append(env.closers, pub.Close)
		env.service.WithPublisher(pub.WithLogger(logger))
	}
	return env, nil
}

func (e *environment) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("Failed to release resource", logfields.Error(err))
		}
	}
	e.closers = nil
}
