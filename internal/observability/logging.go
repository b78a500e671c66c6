// Package observability carries build-scoped logging context through a
// context.Context so nested stages log with the same identifying fields.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	BuildID string
	Stage   string
	Page    string
	// Worker is 1-based; zero means no worker.
	Worker int
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := GetContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := GetContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithPage adds the page being processed to the context.
func WithPage(ctx context.Context, page string) context.Context {
	lc := GetContext(ctx)
	lc.Page = page
	return context.WithValue(ctx, logContextKey, lc)
}

// WithWorker adds a read-phase worker number to the context.
func WithWorker(ctx context.Context, worker int) context.Context {
	lc := GetContext(ctx)
	lc.Worker = worker
	return context.WithValue(ctx, logContextKey, lc)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// Attrs returns the slog attributes for the context's LogContext.
func Attrs(ctx context.Context) []slog.Attr {
	lc := GetContext(ctx)
	var attrs []slog.Attr
	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	if lc.Worker > 0 {
		attrs = append(attrs, logfields.Worker(lc.Worker))
	}
	if lc.Page != "" {
		attrs = append(attrs, logfields.Page(lc.Page))
	}
	return attrs
}

// Logger returns base annotated with the context's fields.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	attrs := Attrs(ctx)
	if len(attrs) == 0 {
		return base
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return base.With(args...)
}
