// Package notify publishes build summaries to interested listeners.
package notify

import (
	"context"
	"time"
)

// Summary is the JSON document published after every build.
type Summary struct {
	BuildID     string    `json:"build_id"`
	Status      string    `json:"status"`
	Incremental bool      `json:"incremental"`
	Built       []string  `json:"built,omitempty"`
	Failed      []string  `json:"failed,omitempty"`
	Removed     []string  `json:"removed,omitempty"`
	Stale       []string  `json:"stale,omitempty"`
	Unresolved  int       `json:"unresolved"`
	DurationMS  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

// Publisher delivers build summaries.
type Publisher interface {
	Publish(ctx context.Context, s Summary) error
	Close() error
}

// NoopPublisher discards summaries (default when notifications are not configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Summary) error { return nil }
func (NoopPublisher) Close() error                           { return nil }
