package build

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/extractor"
	"git.home.luguber.info/inful/symdoc/internal/incremental"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
	"git.home.luguber.info/inful/symdoc/internal/notify"
	"git.home.luguber.info/inful/symdoc/internal/render"
	"git.home.luguber.info/inful/symdoc/internal/storage"

	"github.com/google/uuid"
)

// Request holds per-build options.
type Request struct {
	// Full ignores cached scans and re-reads every page.
	Full bool
}

// Status represents the outcome of a build.
type Status string

const (
	// StatusSuccess: every page read and every reference resolved.
	StatusSuccess Status = "success"
	// StatusWarning: the build completed with failed pages or unresolved references.
	StatusWarning Status = "warning"
	// StatusFailed: the build stopped on an error.
	StatusFailed Status = "failed"
	// StatusCanceled: the context was canceled; nothing was merged.
	StatusCanceled Status = "canceled"
)

// PageFailure is a page whose read phase failed.
type PageFailure struct {
	Page string
	Err  error
}

// Result describes a finished build.
type Result struct {
	BuildID string
	Status  Status
	// Incremental is false when no snapshot was available or Full was requested.
	Incremental bool
	Changes     incremental.ChangeSet
	Stale       []string
	// Read lists pages processed successfully in the read phase.
	Read     []string
	Failures []PageFailure
	// Written lists every page output written in the write phase.
	Written    []string
	Removed    []string
	Unresolved int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// FailedPages returns the ids of failed pages.
func (r *Result) FailedPages() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Page)
	}
	return out
}

// Service executes builds for one configuration.
type Service struct {
	cfg       *config.Config
	adapter   *extractor.Adapter
	tracker   *incremental.Tracker
	snapshots *incremental.SnapshotCache
	events    eventstore.Store
	publisher notify.Publisher
	recorder  metrics.Recorder
	logger    *slog.Logger
	newID     func() string
}

// NewService creates a build service. tool runs the extractor and store
// keeps registry snapshots between builds.
func NewService(cfg *config.Config, tool extractor.Tool, store storage.ObjectStore) *Service {
	return &Service{
		cfg:       cfg,
		adapter:   extractor.NewAdapter(tool),
		tracker:   incremental.NewTracker(),
		snapshots: incremental.NewSnapshotCache(store),
		publisher: notify.NoopPublisher{},
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder used by the service, its extractor
// adapter and its tracker.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
		s.adapter.WithRecorder(r)
		s.tracker.WithRecorder(r)
	}
	return s
}

// WithLogger sets the logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
		s.adapter.WithLogger(logger)
		s.tracker.WithLogger(logger)
		s.snapshots.WithLogger(logger)
	}
	return s
}

// WithEventStore records build events in store.
func (s *Service) WithEventStore(store eventstore.Store) *Service {
	s.events = store
	return s
}

// WithPublisher publishes a summary after every build.
func (s *Service) WithPublisher(p notify.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config { return s.cfg }

func (s *Service) renderOptions() render.Options {
	return render.Options{FilterInherited: s.cfg.FilterInherited}
}
