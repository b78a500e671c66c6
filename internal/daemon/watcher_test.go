package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type triggerLog struct {
	mu      sync.Mutex
	reasons []string
}

func (l *triggerLog) trigger(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons = append(l.reasons, reason)
}

func (l *triggerLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.reasons...)
}

func startWatcher(t *testing.T, roots ...string) *triggerLog {
	t.Helper()
	log := &triggerLog{}
	w, err := NewWatcher(roots, 50*time.Millisecond, log.trigger)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})
	return log
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	log := startWatcher(t, dir)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	require.Len(t, log.snapshot(), 1)
	require.Contains(t, log.snapshot()[0], "change: ")
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	log := startWatcher(t, dir)

	sub := filepath.Join(dir, "components")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "sprite.md"), []byte("x"), 0o600))
	require.Eventually(t, func() bool {
		reasons := log.snapshot()
		return len(reasons) == 2 && reasons[1] == "change: "+filepath.Join(sub, "sprite.md")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresHiddenAndSwapFiles(t *testing.T) {
	dir := t.TempDir()
	log := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md.swp"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md~"), []byte("x"), 0o600))
	time.Sleep(200 * time.Millisecond)
	require.Empty(t, log.snapshot())
}

func TestWatcher_SkipsMissingRoots(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher([]string{filepath.Join(dir, "missing"), dir}, time.Millisecond, func(string) {})
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestShouldIgnore(t *testing.T) {
	cases := map[string]bool{
		"/p/docs/index.md":     false,
		"/p/lib/src/game.dart": false,
		"/p/docs/.index.md":    true,
		"/p/docs/index.md~":    true,
		"/p/docs/index.swp":    true,
		"/p/docs/#index.md#":   true,
		"/p/docs/out.tmp":      true,
	}
	for path, want := range cases {
		require.Equal(t, want, shouldIgnore(path), path)
	}
}
