package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/notify"
	"git.home.luguber.info/inful/symdoc/internal/observability"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

func (s *Service) emitStarted(ctx context.Context, plan *Plan, workers int) {
	if s.events == nil {
		return
	}
	buildID := observability.GetContext(ctx).BuildID
	started, err := eventstore.NewBuildStarted(buildID, eventstore.BuildStartedData{
		Incremental: plan.Incremental,
		Pages:       len(plan.Pages),
		Added:       plan.Changes.Added.Len(),
		Changed:     plan.Changes.Changed.Len(),
		Removed:     plan.Changes.Removed.Len(),
		Stale:       plan.Stale.Len(),
		Workers:     workers,
	})
	s.record(ctx, started, err)
	for _, page := range sets.Sorted(plan.Stale) {
		e, err := eventstore.NewPageStale(buildID, page)
		s.record(ctx, e, err)
	}
}

func (s *Service) emitPageBuilt(ctx context.Context, reg *registry.Registry, page string, unresolved int) {
	if s.events == nil {
		return
	}
	var symbols []string
	if p, ok := reg.Page(page); ok {
		for _, id := range p.Symbols {
			symbols = append(symbols, id.String())
		}
	}
	e, err := eventstore.NewPageBuilt(observability.GetContext(ctx).BuildID, eventstore.PageBuiltData{
		Page:       page,
		Symbols:    symbols,
		Unresolved: unresolved,
	})
	s.record(ctx, e, err)
}

// finish records the failed pages and the completion event and publishes
// the build summary. Errors here are logged, never returned.
func (s *Service) finish(ctx context.Context, result *Result, buildErr error) {
	logger := observability.Logger(ctx, s.logger)

	if s.events != nil {
		for _, f := range result.Failures {
			e, err := eventstore.NewPageFailed(result.BuildID, f.Page, f.Err)
			s.record(ctx, e, err)
		}
		e, err := eventstore.NewBuildCompleted(result.BuildID, eventstore.BuildCompletedData{
			Status:     string(result.Status),
			Built:      len(result.Read),
			Failed:     len(result.Failures),
			Removed:    len(result.Removed),
			Unresolved: result.Unresolved,
			DurationMS: result.Duration.Milliseconds(),
		})
		s.record(ctx, e, err)
	}

	summary := notify.Summary{
		BuildID:     result.BuildID,
		Status:      string(result.Status),
		Incremental: result.Incremental,
		Built:       result.Read,
		Failed:      result.FailedPages(),
		Removed:     result.Removed,
		Stale:       result.Stale,
		Unresolved:  result.Unresolved,
		DurationMS:  result.Duration.Milliseconds(),
		CompletedAt: time.Now(),
	}
	if buildErr != nil {
		logger.Debug("Publishing summary of unsuccessful build", logfields.Error(buildErr))
	}
	if err := s.publisher.Publish(ctx, summary); err != nil {
		logger.Warn("Failed to publish build summary", logfields.Error(err))
	}
}

func (s *Service) record(ctx context.Context, e eventstore.Event, err error) {
	if err == nil {
		err = eventstore.Record(ctx, s.events, e)
	}
	if err != nil {
		observability.Logger(ctx, s.logger).Warn("Failed to record build event", logfields.Error(err))
	}
}
