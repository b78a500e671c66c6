package build

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/symdoc/internal/docs"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
	"git.home.luguber.info/inful/symdoc/internal/observability"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// assignment is one worker's share of the queue.
type assignment struct {
	pages []*docs.Page
	reg   *registry.Registry
	read  []string
	fails []PageFailure
}

func (a *assignment) scope() sets.Set[string] {
	scope := sets.New[string]()
	for _, p := range a.pages {
		scope.Add(p.ID)
	}
	return scope
}

// partition splits queue into at most workers contiguous runs of whole
// directory groups, each about len(queue)/workers pages long. Merging the
// assignments in order therefore replays the queue order: when two pages
// declare the same symbol, the later one owns it whatever the worker count.
func partition(queue []*docs.Page, workers int) []*assignment {
	if len(queue) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	var groups [][]*docs.Page
	for i, p := range queue {
		if i == 0 || p.Dir() != queue[i-1].Dir() {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], p)
	}
	if workers > len(groups) {
		workers = len(groups)
	}

	target := (len(queue) + workers - 1) / workers
	out := []*assignment{{}}
	for _, g := range groups {
		cur := out[len(out)-1]
		if len(cur.pages) > 0 && len(cur.pages)+len(g) > target && len(out) < workers {
			cur = &assignment{}
			out = append(out, cur)
		}
		cur.pages = append(cur.pages, g...)
	}
	return out
}

// readPhase runs the assignments in parallel, each against its own clone of
// base. It returns the context error if the build was canceled.
func (s *Service) readPhase(ctx context.Context, base *registry.Registry, assignments []*assignment) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range assignments {
		a.reg = base.Clone()
		wctx := observability.WithWorker(gctx, i+1)
		g.Go(func() error {
			for _, page := range a.pages {
				if err := gctx.Err(); err != nil {
					return err
				}
				pctx := observability.WithPage(wctx, page.ID)
				if err := s.readPage(pctx, a.reg, page); err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					observability.Logger(pctx, s.logger).Warn("Page failed", logfields.Error(err))
					s.recorder.IncPageResult(metrics.ResultFailed)
					a.fails = append(a.fails, PageFailure{Page: page.ID, Err: err})
					continue
				}
				s.recorder.IncPageResult(metrics.ResultSuccess)
				a.read = append(a.read, page.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// readPage refreshes the records of one page in reg. Every directive is
// attempted; the first failure is returned. A failed page keeps an empty
// fingerprint so that the next build reads it again.
func (s *Service) readPage(ctx context.Context, reg *registry.Registry, page *docs.Page) error {
	logger := observability.Logger(ctx, s.logger)
	record := &registry.Page{ID: page.ID, Package: s.pagePackage(page)}
	reg.SetPage(record)

	if page.Err != nil {
		reg.Reconcile(page.ID)
		return page.Err
	}

	var firstErr error
	for _, d := range page.Directives {
		id := s.identity(page, d)
		source, err := s.cfg.ResolveSource(id.Package, d.File)
		if err == nil {
			_, err = s.adapter.EnsureFresh(ctx, reg, id, source, page.ID)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Directive failed",
				logfields.Symbol(id.Name),
				logfields.Package(id.Package),
				slog.Int("line", d.Line),
				logfields.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	reg.Reconcile(page.ID)
	if firstErr != nil {
		return firstErr
	}
	record.Fingerprint = page.Fingerprint
	logger.Debug("Page read", logfields.Count(len(record.Symbols)))
	return nil
}

// pagePackage is the package directives on page default to.
func (s *Service) pagePackage(page *docs.Page) string {
	if page.Frontmatter.Package != "" {
		return page.Frontmatter.Package
	}
	return s.cfg.DefaultPackage
}

func (s *Service) identity(page *docs.Page, d docs.Directive) registry.Identity {
	pkg := d.Package
	if pkg == "" {
		pkg = s.pagePackage(page)
	}
	return registry.Identity{Package: pkg, Name: d.Symbol}
}
