package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/docs"
	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/incremental"
	"git.home.luguber.info/inful/symdoc/internal/notify"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/storage"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

const (
	gameJSON      = `[{"declarations": [{"kind": "class", "name": "Game", "description": "The game root."}]}]`
	componentJSON = `[{"declarations": [{"kind": "class", "name": "Component", "members": [
  {"kind": "method", "name": "update", "parameters": {"all": [{"name": "dt", "type": "double"}]}, "returns": "void"}
]}]}]`
)

// sourceTool answers by source file name and counts calls per file.
type sourceTool struct {
	mu      sync.Mutex
	outputs map[string]string
	calls   map[string]int
	onCall  func()
}

func newSourceTool() *sourceTool {
	return &sourceTool{
		outputs: map[string]string{"game.dart": gameJSON, "component.dart": componentJSON},
		calls:   map[string]int{},
	}
}

func (f *sourceTool) Extract(ctx context.Context, path string) ([]byte, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	f.calls[name]++
	out, ok := f.outputs[name]
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, ferrors.ExtractionError("parser exited with status 1").Build()
	}
	return []byte(out), nil
}

func (f *sourceTool) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

type project struct {
	dir   string
	cfg   *config.Config
	tool  *sourceTool
	store *storage.MockStore
	svc   *Service
}

func md(s string) string { return strings.ReplaceAll(s, "§", "`") }

func newProject(t *testing.T) *project {
	t.Helper()
	dir := t.TempDir()
	p := &project{dir: dir}
	p.write(t, "symdoc.yaml", `
default_package: flame
roots:
  flame: src
pages_dir: docs
output_dir: build
workers: 2
`)
	p.source(t, "game.dart", t0)
	p.source(t, "component.dart", t0)
	p.write(t, "docs/index.md", md(`# Home

§§§{symdoc}
:file: game.dart
:symbol: Game
§§§

Start with {ref}§Component§ and {ref}§Component-update§.
`))
	p.write(t, "docs/components/index.md", md(`# Components

§§§{symdoc}
:file: component.dart
:symbol: Component
§§§

Components live in a {ref}§Game§.
`))
	p.write(t, "docs/components/sprite.md", md("# Sprite\n\nOverride {ref}§Component-update§.\n"))

	cfg, err := config.Load(filepath.Join(dir, "symdoc.yaml"))
	require.NoError(t, err)
	p.cfg = cfg
	p.tool = newSourceTool()
	p.store = storage.NewMockStore()
	p.svc = NewService(cfg, p.tool, p.store)
	return p
}

func (p *project) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(p.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (p *project) source(t *testing.T, name string, mtime time.Time) {
	t.Helper()
	p.write(t, "src/"+name, "// "+name)
	require.NoError(t, os.Chtimes(filepath.Join(p.dir, "src", name), mtime, mtime))
}

func (p *project) output(t *testing.T, id string) string {
	t.Helper()
	data, err := os.ReadFile(OutputPath(p.cfg.OutputDir, id))
	require.NoError(t, err)
	return string(data)
}

func TestRun_FirstBuildRendersAndLinks(t *testing.T) {
	p := newProject(t)

	res, err := p.svc.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.False(t, res.Incremental)
	require.Equal(t, []string{"components/index", "components/sprite", "index"}, res.Read)
	require.Equal(t, []string{"index", "components/index", "components/sprite"}, res.Written)
	require.Zero(t, res.Unresolved)
	require.Equal(t, 1, p.tool.Calls("game.dart"))
	require.Equal(t, 1, p.tool.Calls("component.dart"))

	home := p.output(t, "index")
	require.Contains(t, home, "## class Game {#Game}")
	require.Contains(t, home, "Start with [Component](components/index.md#Component) and [Component-update](components/index.md#Component-update).")

	components := p.output(t, "components/index")
	require.Contains(t, components, "#### update(double dt) {#Component-update}")
	require.Contains(t, components, "Components live in a [Game](../index.md#Game).")

	require.Contains(t, p.output(t, "components/sprite"), "[Component-update](index.md#Component-update)")
}

func TestRun_IncrementalRebuilds(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)

	// Nothing changed: nothing is read and the tool is not run.
	res, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.True(t, res.Incremental)
	require.True(t, res.Changes.Empty())
	require.Empty(t, res.Stale)
	require.Empty(t, res.Read)
	require.Len(t, res.Written, 3)
	require.Equal(t, 1, p.tool.Calls("component.dart"))

	// A rewritten source makes its owning page stale.
	p.source(t, "component.dart", t0.Add(time.Hour))
	res, err = p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Equal(t, []string{"components/index"}, res.Stale)
	require.Equal(t, []string{"components/index"}, res.Read)
	require.Equal(t, 2, p.tool.Calls("component.dart"))
	require.Equal(t, 1, p.tool.Calls("game.dart"))

	// An edited page is re-read but its unchanged sources come from the cache.
	p.write(t, "docs/index.md", md(`# Home

§§§{symdoc}
:file: game.dart
:symbol: Game
§§§

Edited. See {ref}§Component§.
`))
	res, err = p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Equal(t, []string{"index"}, sets.Sorted(res.Changes.Changed))
	require.Equal(t, []string{"index"}, res.Read)
	require.Equal(t, 1, p.tool.Calls("game.dart"))
	require.Contains(t, p.output(t, "index"), "Edited. See [Component](components/index.md#Component).")
}

func TestRun_FullIgnoresCache(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	res, err := p.svc.Run(ctx, Request{Full: true})
	require.NoError(t, err)
	require.False(t, res.Incremental)
	require.Len(t, res.Read, 3)
	require.Equal(t, 2, p.tool.Calls("game.dart"))
	require.Equal(t, 2, p.tool.Calls("component.dart"))
}

func TestRun_RemovedPagesArePurged(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(p.dir, "docs", "components", "index.md")))
	res, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Equal(t, []string{"components/index"}, res.Removed)
	require.NoFileExists(t, OutputPath(p.cfg.OutputDir, "components/index"))

	// Component went away with its page, so references to it no longer resolve.
	require.Equal(t, StatusWarning, res.Status)
	require.Equal(t, 3, res.Unresolved)
	require.Contains(t, p.output(t, "index"), "Start with `Component` (unresolved)")

	reg, found, err := incremental.NewSnapshotCache(p.store).Latest(ctx, p.cfg.OutputDir)
	require.NoError(t, err)
	require.True(t, found)
	_, ok := reg.Page("components/index")
	require.False(t, ok)
	_, ok = reg.Resolve("Component")
	require.False(t, ok)
}

func TestRun_SymbolReturnsToPageAfterTakeoverEnds(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)

	// A new page declares Game too and takes it over.
	p.write(t, "docs/zz.md", md("# Extra\n\n§§§{symdoc}\n:file: game.dart\n:symbol: Game\n§§§\n"))
	_, err = p.svc.Run(ctx, Request{})
	require.NoError(t, err)

	// It stops declaring Game; index still does and has to get it back.
	p.write(t, "docs/zz.md", "# Extra\n\nNothing here.\n")
	res, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, []string{"index", "zz"}, res.Read)
	require.Equal(t, []string{"index"}, res.Stale)
	require.Zero(t, res.Unresolved)

	home := p.output(t, "index")
	require.Contains(t, home, "## class Game {#Game}")
	require.NotContains(t, home, "could not be documented")
	require.Contains(t, p.output(t, "components/index"), "Components live in a [Game](../index.md#Game).")

	reg, _, err := incremental.NewSnapshotCache(p.store).Latest(ctx, p.cfg.OutputDir)
	require.NoError(t, err)
	target, ok := reg.Resolve("Game")
	require.True(t, ok)
	require.Equal(t, "index", target.PageID)

	// The next build has nothing left to do.
	res, err = p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Empty(t, res.Read)
}

func TestPlan_QueuesPagesMissingARecord(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)

	// A snapshot where index still has its page record but lost Game.
	cache := incremental.NewSnapshotCache(p.store)
	reg, _, err := cache.Latest(ctx, p.cfg.OutputDir)
	require.NoError(t, err)
	page, ok := reg.Page("index")
	require.True(t, ok)
	reg.SetPage(&registry.Page{ID: page.ID, Package: page.Package, Fingerprint: page.Fingerprint})
	reg.Reconcile("index")
	_, err = cache.Save(ctx, p.cfg.OutputDir, reg)
	require.NoError(t, err)

	plan, err := p.svc.Plan(ctx, Request{})
	require.NoError(t, err)
	require.True(t, plan.Changes.Empty())
	require.True(t, plan.Stale.Has("index"))
	require.Equal(t, []string{"index"}, pageIDs(plan.Queue))
}

func TestRun_DuplicateDeclarationOwnerIgnoresWorkerCount(t *testing.T) {
	for _, workers := range []int{1, 2, 4} {
		p := newProject(t)
		p.cfg.Workers = workers
		p.write(t, "docs/components/sprite.md", md("# Sprite\n\n§§§{symdoc}\n:file: game.dart\n:symbol: Game\n§§§\n"))
		p.write(t, "docs/zz/dup.md", md("# Dup\n\n§§§{symdoc}\n:file: game.dart\n:symbol: Game\n§§§\n"))

		_, err := p.svc.Run(context.Background(), Request{})
		require.NoError(t, err)

		reg, _, err := incremental.NewSnapshotCache(p.store).Latest(context.Background(), p.cfg.OutputDir)
		require.NoError(t, err)
		target, ok := reg.Resolve("Game")
		require.True(t, ok)
		require.Equal(t, "zz/dup", target.PageID, "workers=%d", workers)
	}
}

func TestRun_PageFailuresDoNotAbort(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()
	p.write(t, "docs/broken.md", md("§§§{symdoc}\n:file: missing.dart\n:symbol: Missing\n§§§\n"))

	res, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Equal(t, StatusWarning, res.Status)
	require.Len(t, res.Failures, 1)
	require.Equal(t, "broken", res.Failures[0].Page)
	require.True(t, ferrors.IsConfiguration(res.Failures[0].Err))
	require.Len(t, res.Read, 3)
	require.Contains(t, p.output(t, "broken"), "could not be documented from `missing.dart`")

	// The failed page is retried on the next build; the others are not.
	res, err = p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Equal(t, []string{"broken"}, sets.Sorted(res.Changes.Changed))
	require.Len(t, res.Failures, 1)
	require.Empty(t, res.Read)

	// Once the source exists and the tool understands it, the page succeeds.
	p.source(t, "missing.dart", t0)
	p.tool.mu.Lock()
	p.tool.outputs["missing.dart"] = `[{"declarations": [{"kind": "function", "name": "Missing"}]}]`
	p.tool.mu.Unlock()
	res, err = p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, []string{"broken"}, res.Read)
	require.Contains(t, p.output(t, "broken"), "## Missing() {#Missing}")
}

func TestRun_ExtractionFailureKeepsNoRecord(t *testing.T) {
	p := newProject(t)
	p.write(t, "docs/tools.md", md("§§§{symdoc}\n:file: tools.dart\n:symbol: Tool\n§§§\n"))
	p.source(t, "tools.dart", t0)

	res, err := p.svc.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	require.True(t, ferrors.IsExtractionFailed(res.Failures[0].Err))

	reg, _, err := incremental.NewSnapshotCache(p.store).Latest(context.Background(), p.cfg.OutputDir)
	require.NoError(t, err)
	_, ok := reg.Resolve("Tool")
	require.False(t, ok)
	page, ok := reg.Page("tools")
	require.True(t, ok)
	require.Empty(t, page.Fingerprint)
}

func TestRun_CanceledBuildMergesNothing(t *testing.T) {
	p := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.tool.onCall = cancel

	res, err := p.svc.Run(ctx, Request{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCanceled, res.Status)
	require.Empty(t, res.Written)
	require.NoDirExists(t, p.cfg.OutputDir)

	_, found, err := incremental.NewSnapshotCache(p.store).Latest(context.Background(), p.cfg.OutputDir)
	require.NoError(t, err)
	require.False(t, found)
}

type capturePublisher struct {
	summaries []notify.Summary
}

func (c *capturePublisher) Publish(_ context.Context, s notify.Summary) error {
	c.summaries = append(c.summaries, s)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func TestRun_RecordsEventsAndPublishes(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	events, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })
	pub := &capturePublisher{}
	p.svc.WithEventStore(events).WithPublisher(pub)
	p.svc.newID = func() string { return "build-1" }

	res, err := p.svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.Equal(t, "build-1", res.BuildID)

	got, err := events.GetByBuildID(ctx, "build-1")
	require.NoError(t, err)
	types := make([]string, 0, len(got))
	for _, e := range got {
		types = append(types, e.Type())
	}
	require.Equal(t, []string{
		eventstore.TypeBuildStarted,
		eventstore.TypePageBuilt,
		eventstore.TypePageBuilt,
		eventstore.TypePageBuilt,
		eventstore.TypeBuildCompleted,
	}, types)

	history := eventstore.NewBuildHistoryProjection(events, 10)
	require.NoError(t, history.Rebuild(ctx))
	summary, ok := history.Build("build-1")
	require.True(t, ok)
	require.Equal(t, string(StatusSuccess), summary.Status)

	require.Len(t, pub.summaries, 1)
	require.Equal(t, "build-1", pub.summaries[0].BuildID)
	require.Equal(t, "success", pub.summaries[0].Status)
	require.Equal(t, res.Read, pub.summaries[0].Built)
}

func TestRun_MissingPagesDirFails(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.RemoveAll(filepath.Join(p.dir, "docs")))

	res, err := p.svc.Run(context.Background(), Request{})
	require.Error(t, err)
	require.True(t, ferrors.IsConfiguration(err))
	require.Equal(t, StatusFailed, res.Status)
}

func TestPartition(t *testing.T) {
	ids := []string{"index", "a", "api/index", "api/x", "api/y", "guide/index", "guide/z"}
	queue := make([]*docs.Page, 0, len(ids))
	for _, id := range ids {
		queue = append(queue, &docs.Page{ID: id})
	}

	assignments := partition(queue, 2)
	require.Len(t, assignments, 2)
	require.Equal(t, []string{"index", "a"}, pageIDs(assignments[0].pages))
	require.Equal(t, []string{"api/index", "api/x", "api/y", "guide/index", "guide/z"}, pageIDs(assignments[1].pages))

	assignments = partition(queue, 8)
	require.Len(t, assignments, 3)
	require.Equal(t, []string{"api/index", "api/x", "api/y"}, pageIDs(assignments[1].pages))

	require.Len(t, partition(queue, 1), 1)
	require.Nil(t, partition(nil, 4))
}

func pageIDs(pages []*docs.Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.ID)
	}
	return out
}
