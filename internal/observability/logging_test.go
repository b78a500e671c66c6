package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextValuesAccumulate(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")
	ctx = WithStage(ctx, "read")
	ctx = WithWorker(ctx, 2)
	ctx = WithPage(ctx, "components/index")

	lc := GetContext(ctx)
	require.Equal(t, LogContext{BuildID: "build-123", Stage: "read", Page: "components/index", Worker: 2}, lc)
}

func TestAttrsEmptyContext(t *testing.T) {
	require.Empty(t, Attrs(context.Background()))
}

func TestLoggerAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithStage(WithBuildID(context.Background(), "b1"), "write")
	Logger(ctx, base).Info("page written")

	out := buf.String()
	require.Contains(t, out, "build_id=b1")
	require.Contains(t, out, "stage=write")
	require.NotContains(t, out, "worker=")
}

func TestLoggerWithoutFieldsReturnsBase(t *testing.T) {
	base := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	require.Same(t, base, Logger(context.Background(), base))
}
