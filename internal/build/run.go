package build

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/docs"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
	"git.home.luguber.info/inful/symdoc/internal/observability"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// Run executes a build. Page failures and unresolved references do not fail
// the build; they are reported in the result with StatusWarning. A canceled
// context stops the build before anything is merged or written.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{BuildID: s.newID(), StartTime: start}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	err := s.run(ctx, req, result)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)
	switch {
	case err != nil && ctx.Err() != nil:
		result.Status = StatusCanceled
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
	case err != nil:
		result.Status = StatusFailed
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	case len(result.Failures) > 0 || result.Unresolved > 0:
		result.Status = StatusWarning
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeWarning)
	default:
		result.Status = StatusSuccess
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	}
	s.recorder.ObserveBuildDuration(result.Duration)
	s.finish(context.WithoutCancel(ctx), result, err)
	return result, err
}

func (s *Service) run(ctx context.Context, req Request, result *Result) error {
	logger := observability.Logger(ctx, s.logger)

	plan, err := s.Plan(observability.WithStage(ctx, "plan"), req)
	if err != nil {
		return err
	}
	result.Incremental = plan.Incremental
	result.Changes = plan.Changes
	result.Stale = sets.Sorted(plan.Stale)

	assignments := partition(plan.Queue, s.cfg.Workers)
	logger.Info("Build planned",
		slog.Bool("incremental", plan.Incremental),
		slog.Int("pages", len(plan.Pages)),
		slog.Int("added", plan.Changes.Added.Len()),
		slog.Int("changed", plan.Changes.Changed.Len()),
		slog.Int("removed", plan.Changes.Removed.Len()),
		slog.Int("stale", plan.Stale.Len()),
		slog.Int("workers", len(assignments)))
	for range len(plan.Pages) - len(plan.Queue) {
		s.recorder.IncPageResult(metrics.ResultSkipped)
	}
	s.emitStarted(ctx, plan, len(assignments))

	// Read.
	stageStart := time.Now()
	if err := s.readPhase(observability.WithStage(ctx, "read"), plan.Registry, assignments); err != nil {
		logger.Warn("Build canceled during read phase; nothing merged", logfields.Error(err))
		s.recorder.IncPageResult(metrics.ResultCanceled)
		return err
	}
	s.recorder.ObserveStageDuration("read", time.Since(stageStart))

	// Merge.
	stageStart = time.Now()
	reg := plan.Registry
	mergeAssignments(reg, assignments, result)
	for id := range plan.Changes.Removed {
		reg.Purge(id)
	}

	// Pages left without a record for one of their symbols are read in a
	// second round so that they take the symbol back in this build.
	queued := sets.New[string]()
	for _, p := range plan.Queue {
		queued.Add(p.ID)
	}
	if ids := s.undocumentedPages(reg, plan.Pages, queued); len(ids) > 0 {
		logger.Info("Reading pages that lost a symbol", slog.Any("pages", ids))
		retry := sets.New(ids...)
		var pages []*docs.Page
		for _, p := range plan.Pages {
			if retry.Has(p.ID) {
				pages = append(pages, p)
			}
		}
		second := partition(pages, s.cfg.Workers)
		if err := s.readPhase(observability.WithStage(ctx, "read"), reg, second); err != nil {
			logger.Warn("Build canceled during read phase; nothing merged", logfields.Error(err))
			s.recorder.IncPageResult(metrics.ResultCanceled)
			return err
		}
		mergeAssignments(reg, second, result)
		for _, id := range ids {
			queued.Add(id)
		}
		result.Stale = append(result.Stale, ids...)
		slices.Sort(result.Stale)
	}
	slices.Sort(result.Read)
	slices.SortFunc(result.Failures, func(a, b PageFailure) int { return strings.Compare(a.Page, b.Page) })
	s.recorder.ObserveStageDuration("merge", time.Since(stageStart))

	// Write.
	stageStart = time.Now()
	wctx := observability.WithStage(ctx, "write")
	failed := sets.New(result.FailedPages()...)
	for _, page := range plan.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if page.Err != nil {
			continue
		}
		unresolved, err := s.writePage(observability.WithPage(wctx, page.ID), reg, page)
		if err != nil {
			return err
		}
		result.Written = append(result.Written, page.ID)
		result.Unresolved += len(unresolved)
		if queued.Has(page.ID) && !failed.Has(page.ID) {
			s.emitPageBuilt(ctx, reg, page.ID, len(unresolved))
		}
	}
	for _, id := range sets.Sorted(plan.Changes.Removed) {
		if err := s.removeOutput(id); err != nil {
			return err
		}
		result.Removed = append(result.Removed, id)
	}
	s.recorder.ObserveStageDuration("write", time.Since(stageStart))

	// Persist.
	stageStart = time.Now()
	if _, err := s.snapshots.Save(ctx, s.cfg.OutputDir, reg); err != nil {
		return err
	}
	s.recorder.ObserveStageDuration("persist", time.Since(stageStart))

	logger.Info("Build finished",
		slog.Int("read", len(result.Read)),
		slog.Int("failed", len(result.Failures)),
		slog.Int("written", len(result.Written)),
		slog.Int("unresolved", result.Unresolved))
	return nil
}

// mergeAssignments merges each worker's registry into reg in assignment
// order and collects the read pages and failures.
func mergeAssignments(reg *registry.Registry, assignments []*assignment, result *Result) {
	for _, a := range assignments {
		scope := a.scope()
		reg.Merge(a.reg, scope)
		for id := range scope {
			reg.Reconcile(id)
		}
		result.Read = append(result.Read, a.read...)
		result.Failures = append(result.Failures, a.fails...)
	}
}
