package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/symdoc/internal/build"
	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Planner computes build plans without running them.
type Planner interface {
	Plan(ctx context.Context, req build.Request) (*build.Plan, error)
}

// Sweeper periodically plans an incremental build and requests one when the
// plan has work. It catches changes the file watcher missed, such as edits
// made while the daemon was not watching a source root.
type Sweeper struct {
	scheduler gocron.Scheduler
	planner   Planner
	trigger   func(reason string)
	logger    *slog.Logger
}

// NewSweeper creates a stopped sweeper.
func NewSweeper(planner Planner, trigger func(reason string)) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to create scheduler").Build()
	}
	return &Sweeper{scheduler: s, planner: planner, trigger: trigger, logger: slog.Default()}, nil
}

// Start schedules the sweep every interval. A zero interval disables it.
func (s *Sweeper) Start(interval time.Duration) error {
	if interval <= 0 {
		s.logger.Info("Staleness sweep disabled")
		s.scheduler.Start()
		return nil
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.Sweep(context.Background()) }),
		gocron.WithName("staleness-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to schedule staleness sweep").
			WithContext("interval", interval.String()).
			Build()
	}
	s.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

// Sweep plans once and requests a build when anything is out of date.
// It reports whether a build was requested.
func (s *Sweeper) Sweep(ctx context.Context) bool {
	plan, err := s.planner.Plan(ctx, build.Request{})
	if err != nil {
		s.logger.Warn("Staleness sweep failed", logfields.Error(err))
		return false
	}
	if plan.Empty() {
		s.logger.Debug("Staleness sweep found nothing to rebuild")
		return false
	}
	s.logger.Info("Staleness sweep found pending work",
		slog.Int("queued", len(plan.Queue)),
		slog.Int("stale", plan.Stale.Len()),
		slog.Int("removed", plan.Changes.Removed.Len()))
	s.trigger("sweep")
	return true
}
