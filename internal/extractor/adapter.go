package extractor

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
	"git.home.luguber.info/inful/symdoc/internal/registry"
)

// Adapter gates extractor invocations on the symbol cache.
// It holds no registry of its own and may be shared across workers.
type Adapter struct {
	tool     Tool
	recorder metrics.Recorder
	logger   *slog.Logger
	stat     func(string) (fs.FileInfo, error)
}

// NewAdapter creates an adapter around tool.
func NewAdapter(tool Tool) *Adapter {
	return &Adapter{
		tool:     tool,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		stat:     os.Stat,
	}
}

// WithRecorder sets the metrics recorder.
func (a *Adapter) WithRecorder(r metrics.Recorder) *Adapter {
	if r != nil {
		a.recorder = r
	}
	return a
}

// WithLogger sets the logger.
func (a *Adapter) WithLogger(logger *slog.Logger) *Adapter {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// EnsureFresh returns the declaration of id from sourcePath, owned by pageID.
//
// A cached record with the same source whose scan time is not older than the
// file's current mtime is returned without running the tool; only its
// ownership is refreshed. Otherwise the tool runs and, on success, the record
// is written with ScanTime set to the mtime read before the run.
func (a *Adapter) EnsureFresh(ctx context.Context, reg *registry.Registry, id registry.Identity, sourcePath, pageID string) (*declaration.Declaration, error) {
	if err := registry.ValidateName(id.Name); err != nil {
		return nil, err
	}
	mtime, err := a.sourceModTime(sourcePath)
	if err != nil {
		return nil, err
	}

	if rec, ok := reg.Record(id); ok && rec.SourcePath == sourcePath && rec.Fresh(mtime) {
		a.recorder.IncCacheHit()
		if rec.OwningPage != pageID {
			moved := *rec
			moved.OwningPage = pageID
			reg.Upsert(&moved)
		} else {
			reg.Upsert(rec)
		}
		return rec.Declaration, nil
	}

	start := time.Now()
	raw, err := a.tool.Extract(ctx, sourcePath)
	a.recorder.ObserveExtractionDuration(time.Since(start))
	if err != nil {
		if ctx.Err() == nil {
			a.recorder.IncExtraction(metrics.ExtractionFailed)
		}
		return nil, err
	}

	decl, err := ParseOutput(raw, id.Name)
	if err != nil {
		label := metrics.ExtractionMalformed
		if errors.IsSymbolNotFound(err) {
			label = metrics.ExtractionNotFound
		}
		a.recorder.IncExtraction(label)
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("source", sourcePath)
		}
		return nil, err
	}

	reg.Upsert(&registry.Record{
		Identity:    id,
		Declaration: decl,
		SourcePath:  sourcePath,
		ScanTime:    mtime,
		OwningPage:  pageID,
	})
	a.recorder.IncExtraction(metrics.ExtractionSuccess)
	a.logger.Debug("Extracted symbol",
		logfields.Symbol(id.String()),
		logfields.Source(sourcePath),
		logfields.Page(pageID),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return decl, nil
}

func (a *Adapter) sourceModTime(path string) (time.Time, error) {
	info, err := a.stat(path)
	if err != nil {
		return time.Time{}, errors.ConfigError("source file does not exist").
			WithCause(err).
			WithContext("source", path).
			Build()
	}
	if !info.Mode().IsRegular() {
		return time.Time{}, errors.ConfigError("source path is not a file").
			WithContext("source", path).
			Build()
	}
	return info.ModTime(), nil
}
