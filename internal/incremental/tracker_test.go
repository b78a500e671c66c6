package incremental

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/extractor"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

type countingTool struct {
	calls atomic.Int32
}

func (c *countingTool) Extract(context.Context, string) ([]byte, error) {
	c.calls.Add(1)
	return []byte(`[{"declarations": [{"kind": "class", "name": "Foo"}, {"kind": "class", "name": "Bar"}]}]`), nil
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newSource(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("// source"), 0o600))
	touch(t, path, mtime)
	return path
}

func TestStalePages_SourceRewrittenAfterScan(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src := newSource(t, t.TempDir(), "f.src", t0)

	tool := &countingTool{}
	adapter := extractor.NewAdapter(tool)
	reg := registry.New()
	foo := registry.Identity{Package: "pkg", Name: "Foo"}

	_, err := adapter.EnsureFresh(context.Background(), reg, foo, src, "P1")
	require.NoError(t, err)
	require.EqualValues(t, 1, tool.calls.Load())

	tracker := NewTracker()
	none := sets.New[string]()
	require.Zero(t, tracker.StalePages(reg, none, none, none).Len())

	t1 := t0.Add(time.Minute)
	touch(t, src, t1)
	stale := tracker.StalePages(reg, none, none, none)
	require.Equal(t, []string{"P1"}, sets.Sorted(stale))

	_, err = adapter.EnsureFresh(context.Background(), reg, foo, src, "P1")
	require.NoError(t, err)
	require.EqualValues(t, 2, tool.calls.Load())

	rec, ok := reg.Record(foo)
	require.True(t, ok)
	require.True(t, rec.ScanTime.Equal(t1))
	require.Zero(t, tracker.StalePages(reg, none, none, none).Len())
}

func TestStalePages_ExcludesExplicitAndDeduplicates(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	dir := t.TempDir()
	shared := newSource(t, dir, "shared.dart", t0)
	other := newSource(t, dir, "other.dart", t0)

	reg := registry.New()
	for _, rec := range []*registry.Record{
		{Identity: registry.Identity{Package: "a", Name: "One"}, SourcePath: shared, OwningPage: "p1"},
		{Identity: registry.Identity{Package: "a", Name: "Two"}, SourcePath: shared, OwningPage: "p1"},
		{Identity: registry.Identity{Package: "b", Name: "Three"}, SourcePath: shared, OwningPage: "p2"},
		{Identity: registry.Identity{Package: "b", Name: "Four"}, SourcePath: other, OwningPage: "p3"},
	} {
		rec.Declaration = decl(rec.Identity.Name)
		rec.ScanTime = t0
		reg.Upsert(rec)
	}

	touch(t, shared, t0.Add(time.Second))
	stale := NewTracker().StalePages(reg, sets.New[string](), sets.New("p2"), nil)
	require.Equal(t, []string{"p1"}, sets.Sorted(stale))
}

func TestStalePages_MissingSourceMarksPage(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	src := newSource(t, t.TempDir(), "gone.dart", t0)

	reg := registry.New()
	reg.Upsert(&registry.Record{
		Identity:    registry.Identity{Package: "a", Name: "Gone"},
		Declaration: decl("Gone"),
		SourcePath:  src,
		ScanTime:    t0,
		OwningPage:  "p",
	})
	require.NoError(t, os.Remove(src))

	stale := NewTracker().StalePages(reg, nil, nil, nil)
	require.True(t, stale.Has("p"))
}

func TestStalePages_OlderSourceIsNotStale(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	src := newSource(t, t.TempDir(), "x.dart", t0.Add(-time.Hour))

	reg := registry.New()
	reg.Upsert(&registry.Record{
		Identity:    registry.Identity{Package: "a", Name: "X"},
		Declaration: decl("X"),
		SourcePath:  src,
		ScanTime:    t0,
		OwningPage:  "p",
	})
	require.Zero(t, NewTracker().StalePages(reg, nil, nil, nil).Len())
}
