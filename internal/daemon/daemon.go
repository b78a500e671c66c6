// Package daemon implements `symdoc watch`: an initial build followed by
// debounced rebuilds on file changes and a periodic staleness sweep.
package daemon

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"git.home.luguber.info/inful/symdoc/internal/build"
	"git.home.luguber.info/inful/symdoc/internal/config"
	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Builder is the part of build.Service the daemon drives.
type Builder interface {
	Plan(ctx context.Context, req build.Request) (*build.Plan, error)
	Run(ctx context.Context, req build.Request) (*build.Result, error)
}

// Daemon serializes builds requested by the watcher and the sweeper.
type Daemon struct {
	cfg     *config.Config
	builder Builder
	logger  *slog.Logger

	// requests holds at most one pending build; further requests coalesce.
	requests chan string

	mu      sync.Mutex
	builds  int
	lastErr error

	// onBuild is called after every build. Tests use it to observe progress.
	onBuild func(*build.Result, error)
}

// New creates a daemon for cfg driving builder.
func New(cfg *config.Config, builder Builder) (*Daemon, error) {
	if cfg == nil {
		return nil, ferrors.ValidationError("config is required").Build()
	}
	if builder == nil {
		return nil, ferrors.ValidationError("builder is required").Build()
	}
	return &Daemon{
		cfg:      cfg,
		builder:  builder,
		logger:   slog.Default(),
		requests: make(chan string, 1),
	}, nil
}

// WithLogger sets the daemon's logger.
func (d *Daemon) WithLogger(logger *slog.Logger) *Daemon {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// Request schedules a build. It never blocks: when a build is already
// pending the request is merged into it.
func (d *Daemon) Request(reason string) {
	select {
	case d.requests <- reason:
	default:
		d.logger.Debug("Build already pending", slog.String("reason", reason))
	}
}

// Builds returns the number of builds run so far and the error of the last one.
func (d *Daemon) Builds() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.builds, d.lastErr
}

// Run performs an initial build, then watches for changes until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	watcher, err := NewWatcher(d.watchDirs(), d.cfg.Watch.Debounce.Std(), d.Request)
	if err != nil {
		return err
	}
	watcher.logger = d.logger
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			d.logger.Warn("Failed to close watcher", logfields.Error(cerr))
		}
	}()

	sweeper, err := NewSweeper(d.builder, d.Request)
	if err != nil {
		return err
	}
	sweeper.logger = d.logger
	if err := sweeper.Start(d.cfg.Watch.SweepInterval.Std()); err != nil {
		return err
	}
	defer func() {
		if serr := sweeper.Stop(); serr != nil {
			d.logger.Warn("Failed to stop sweeper", logfields.Error(serr))
		}
	}()

	go watcher.Run(ctx)

	d.logger.Info("Watching for changes",
		slog.String("pages_dir", d.cfg.PagesDir),
		slog.Duration("debounce", d.cfg.Watch.Debounce.Std()),
		slog.Duration("sweep_interval", d.cfg.Watch.SweepInterval.Std()))

	d.build(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Watch stopped")
			return nil
		case reason := <-d.requests:
			d.build(ctx, reason)
		}
	}
}

func (d *Daemon) build(ctx context.Context, reason string) {
	d.logger.Info("Starting build", slog.String("reason", reason))
	result, err := d.builder.Run(ctx, build.Request{})

	d.mu.Lock()
	d.builds++
	d.lastErr = err
	d.mu.Unlock()

	switch {
	case err != nil && ctx.Err() != nil:
		d.logger.Info("Build canceled", slog.String("reason", reason))
	case err != nil:
		d.logger.Error("Build failed", slog.String("reason", reason), logfields.Error(err))
	default:
		d.logger.Info("Build finished",
			logfields.BuildID(result.BuildID),
			slog.String("status", string(result.Status)),
			slog.Int("written", len(result.Written)),
			slog.Int("failed", len(result.Failures)))
	}
	if d.onBuild != nil {
		d.onBuild(result, err)
	}
}

// watchDirs returns the pages directory followed by every configured
// source root, without duplicates.
func (d *Daemon) watchDirs() []string {
	dirs := []string{d.cfg.PagesDir}
	seen := map[string]bool{d.cfg.PagesDir: true}
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	add(d.cfg.Root)
	for _, pkg := range slices.Sorted(maps.Keys(d.cfg.Roots)) {
		add(d.cfg.Roots[pkg])
	}
	return dirs
}
