package incremental

import (
	"io/fs"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// Tracker finds pages made stale by source files changing on disk.
type Tracker struct {
	stat     func(string) (fs.FileInfo, error)
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewTracker creates a tracker that reads modification times from disk.
func NewTracker() *Tracker {
	return &Tracker{
		stat:     os.Stat,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithLogger sets a custom logger.
func (t *Tracker) WithLogger(logger *slog.Logger) *Tracker {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// WithRecorder sets the metrics recorder.
func (t *Tracker) WithRecorder(r metrics.Recorder) *Tracker {
	if r != nil {
		t.recorder = r
	}
	return t
}

// StalePages returns the pages, outside added, changed and removed, that own
// a record whose source file is newer than its scan time. A source that no
// longer exists also makes its page stale, so that reprocessing reports it.
// The explicit pages are never part of the result.
func (t *Tracker) StalePages(reg *registry.Registry, added, changed, removed sets.Set[string]) sets.Set[string] {
	explicit := sets.Union(added, changed, removed)
	stale := sets.New[string]()
	mtimes := make(map[string]time.Time)
	missing := sets.New[string]()

	for _, rec := range reg.Records() {
		page := rec.OwningPage
		if explicit.Has(page) || stale.Has(page) {
			continue
		}
		if rec.Declaration == nil {
			stale.Add(page)
			continue
		}

		path := rec.SourcePath
		mtime, seen := mtimes[path]
		if !seen && !missing.Has(path) {
			info, err := t.stat(path)
			if err != nil {
				missing.Add(path)
			} else {
				mtime = info.ModTime()
				mtimes[path] = mtime
			}
		}

		if missing.Has(path) {
			t.logger.Debug("Source disappeared",
				logfields.Page(page),
				logfields.Symbol(rec.Identity.String()),
				logfields.Source(path))
			stale.Add(page)
			continue
		}
		if rec.ScanTime.Before(mtime) {
			t.logger.Debug("Source newer than scan",
				logfields.Page(page),
				logfields.Symbol(rec.Identity.String()),
				logfields.Source(path))
			stale.Add(page)
		}
	}

	t.recorder.AddStalePages(stale.Len())
	return stale
}
