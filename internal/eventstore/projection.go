// Package eventstore records build events in SQLite and folds them into a
// build history.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const buildStatusRunning = "running"

// BuildSummary is the read model of one build.
type BuildSummary struct {
	BuildID     string           `json:"build_id"`
	Status      string           `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Duration    time.Duration    `json:"duration,omitempty"`
	Incremental bool             `json:"incremental"`
	Scheduled   int              `json:"scheduled"`
	Stale       []string         `json:"stale,omitempty"`
	Built       int              `json:"built"`
	Failures    []PageFailedData `json:"failures,omitempty"`
	Unresolved  int              `json:"unresolved"`
}

// BuildHistoryProjection folds events into per-build summaries.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	maxSize int
}

// NewBuildHistoryProjection creates a projection keeping at most maxHistorySize builds.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 50
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from every stored event.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = make(map[string]*BuildSummary)
	for _, event := range events {
		p.applyLocked(event)
	}
	p.pruneLocked()
	return nil
}

// Apply folds a single event into the projection.
func (p *BuildHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(event)
	p.pruneLocked()
}

func (p *BuildHistoryProjection) applyLocked(event Event) {
	buildID := event.BuildID()
	if buildID == "" {
		return
	}
	summary, ok := p.builds[buildID]
	if !ok {
		summary = &BuildSummary{BuildID: buildID, Status: buildStatusRunning, StartedAt: event.Timestamp()}
		p.builds[buildID] = summary
	}

	switch event.Type() {
	case TypeBuildStarted:
		var data BuildStartedData
		if json.Unmarshal(event.Payload(), &data) == nil {
			summary.Incremental = data.Incremental
			summary.Scheduled = data.Pages
		}
		summary.StartedAt = event.Timestamp()

	case TypePageStale:
		var data PageStaleData
		if json.Unmarshal(event.Payload(), &data) == nil {
			summary.Stale = append(summary.Stale, data.Page)
		}

	case TypePageBuilt:
		summary.Built++
		var data PageBuiltData
		if json.Unmarshal(event.Payload(), &data) == nil {
			summary.Unresolved += data.Unresolved
		}

	case TypePageFailed:
		var data PageFailedData
		if json.Unmarshal(event.Payload(), &data) == nil {
			summary.Failures = append(summary.Failures, data)
		}

	case TypeBuildCompleted:
		done := event.Timestamp()
		summary.CompletedAt = &done
		summary.Duration = done.Sub(summary.StartedAt)
		var data BuildCompletedData
		if json.Unmarshal(event.Payload(), &data) == nil {
			summary.Status = data.Status
		}
	}
}

// pruneLocked keeps running builds plus the newest maxSize finished ones.
func (p *BuildHistoryProjection) pruneLocked() {
	finished := make([]*BuildSummary, 0, len(p.builds))
	for _, s := range p.builds {
		if s.Status != buildStatusRunning {
			finished = append(finished, s)
		}
	}
	if len(finished) <= p.maxSize {
		return
	}
	sortNewestFirst(finished)
	for _, s := range finished[p.maxSize:] {
		delete(p.builds, s.BuildID)
	}
}

func sortNewestFirst(list []*BuildSummary) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].StartedAt.After(list[j].StartedAt) })
}

// History returns copies of all summaries, newest first.
func (p *BuildHistoryProjection) History() []*BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*BuildSummary, 0, len(p.builds))
	for _, s := range p.builds {
		cp := *s
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out
}

// Build returns a copy of the summary of buildID.
func (p *BuildHistoryProjection) Build(buildID string) (*BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.builds[buildID]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}
