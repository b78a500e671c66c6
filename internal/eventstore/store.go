package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves build events.
type Store interface {
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID returns all events of a build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange returns events with start <= timestamp <= end in append order.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}

// Record appends a typed event to store.
func Record(ctx context.Context, store Store, e Event) error {
	return store.Append(ctx, e.BuildID(), e.Type(), e.Payload(), e.Metadata())
}
