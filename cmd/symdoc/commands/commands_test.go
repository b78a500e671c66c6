package commands

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/build"
	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/docs"
	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/incremental"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("symdoc"), kong.Vars{"version": "test"}, kong.Bind(&Global{}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestCLI_Parse(t *testing.T) {
	cli, ctx := parse(t, "build", "--full")
	require.Equal(t, "build", ctx.Command())
	require.True(t, cli.Build.Full)
	require.Equal(t, config.DefaultPath, cli.Config)

	cli, ctx = parse(t, "-c", "docs/symdoc.yaml", "resolve", "--from", "guide/index", "Game", "Component-update")
	require.Equal(t, "resolve <ref>", ctx.Command())
	require.Equal(t, "docs/symdoc.yaml", cli.Config)
	require.Equal(t, "guide/index", cli.Resolve.From)
	require.Equal(t, []string{"Game", "Component-update"}, cli.Resolve.Refs)

	cli, _ = parse(t, "history", "-n", "3", "--json")
	require.Equal(t, 3, cli.History.Limit)
	require.True(t, cli.History.JSON)
}

func TestFailureError(t *testing.T) {
	require.NoError(t, failureError(&build.Result{BuildID: "b1"}))

	cause := errors.ExtractionError("extractor exited with status 1").Build()
	err := failureError(&build.Result{
		BuildID:  "b1",
		Failures: []build.PageFailure{{Page: "components/sprite", Err: cause}},
	})
	require.Error(t, err)
	require.Equal(t, errors.CategoryBuild, errors.GetCategory(err))
	require.True(t, stderrors.Is(err, cause))
	require.Equal(t, 11, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &build.Result{
		BuildID:     "b1",
		Status:      build.StatusWarning,
		Incremental: true,
		Read:        []string{"index"},
		Written:     []string{"index", "guide"},
		Stale:       []string{"guide"},
		Unresolved:  2,
		Failures:    []build.PageFailure{{Page: "broken", Err: stderrors.New("boom")}},
		Duration:    1500 * time.Millisecond,
	})
	out := buf.String()
	require.Contains(t, out, "Build b1: warning (incremental, 1.5s)")
	require.Contains(t, out, "read 1, written 2, removed 0, stale 1, unresolved references 2")
	require.Contains(t, out, "stale: guide")
	require.Contains(t, out, "failed broken: boom")
}

func TestPrintPlan(t *testing.T) {
	empty := func() incremental.ChangeSet {
		return incremental.ChangeSet{Added: sets.New[string](), Changed: sets.New[string](), Removed: sets.New[string]()}
	}

	var buf bytes.Buffer
	printPlan(&buf, &build.Plan{Incremental: true, Changes: empty(), Stale: sets.New[string]()})
	require.Equal(t, "Up to date.\n", buf.String())

	buf.Reset()
	changes := empty()
	changes.Changed.Add("guide")
	changes.Removed.Add("old")
	printPlan(&buf, &build.Plan{
		Incremental: true,
		Changes:     changes,
		Stale:       sets.New("api/game"),
		Queue:       []*docs.Page{{ID: "guide"}, {ID: "api/game"}},
	})
	out := buf.String()
	require.Contains(t, out, "changed  guide")
	require.Contains(t, out, "removed  old")
	require.Contains(t, out, "stale    api/game")
	require.Contains(t, out, "2 page(s) queued")

	buf.Reset()
	printPlan(&buf, &build.Plan{Changes: empty(), Stale: sets.New[string](), Queue: []*docs.Page{{ID: "index"}}})
	require.Contains(t, buf.String(), "No symbol cache")
}

func TestResolveRefs(t *testing.T) {
	reg := registry.New()
	reg.Upsert(&registry.Record{Identity: registry.Identity{Package: "flame", Name: "Game"}, OwningPage: "api/game"})
	reg.Upsert(&registry.Record{Identity: registry.Identity{Package: "flame", Name: "Component"}, OwningPage: "components/index"})

	var buf bytes.Buffer
	require.NoError(t, resolveRefs(&buf, reg, "index", []string{"Game", "Component-update"}))
	out := buf.String()
	require.Contains(t, out, "Game\tflame.Game\t[Game](api/game.md#Game)")
	require.Contains(t, out, "Component-update\tflame.Component\t")
	require.Contains(t, out, "components/index.md#Component-update")

	buf.Reset()
	err := resolveRefs(&buf, reg, "index", []string{"Game", "Missing"})
	require.True(t, errors.IsSymbolNotFound(err))
	require.Contains(t, buf.String(), "Missing\tunresolved")
}

func TestHistory(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	for _, id := range []string{"b1", "b2"} {
		started, err := eventstore.NewBuildStarted(id, eventstore.BuildStartedData{Incremental: id == "b2", Pages: 3})
		require.NoError(t, err)
		require.NoError(t, eventstore.Record(ctx, store, started))
		completed, err := eventstore.NewBuildCompleted(id, eventstore.BuildCompletedData{Status: "success", Built: 3, DurationMS: 40})
		require.NoError(t, err)
		require.NoError(t, eventstore.Record(ctx, store, completed))
	}

	history, err := loadHistory(ctx, store, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)

	history, err = loadHistory(ctx, store, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var buf bytes.Buffer
	printHistory(&buf, history)
	out := buf.String()
	require.Contains(t, out, "BUILD")
	require.Contains(t, out, "b1")
	require.Contains(t, out, "b2")
	require.Contains(t, out, "success")

	buf.Reset()
	printHistory(&buf, nil)
	require.Equal(t, "No builds recorded.\n", buf.String())
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultPath)
	require.NoError(t, RunInit(path, false))
	_, err := os.Stat(path)
	require.NoError(t, err)
	require.Error(t, RunInit(path, false))
}
