package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject  string
	data     []byte
	flushed  bool
	closed   bool
	flushErr error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return nil
}

func (f *fakeConn) FlushWithContext(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("flush without deadline")
	}
	f.flushed = true
	return f.flushErr
}

func (f *fakeConn) Close() { f.closed = true }

func TestNATSPublisher_PublishesJSONSummary(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, "symdoc.builds")

	s := Summary{
		BuildID:     "b1",
		Status:      "warning",
		Incremental: true,
		Built:       []string{"index"},
		Failed:      []string{"components/sprite"},
		Unresolved:  2,
		DurationMS:  42,
		CompletedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), s))
	require.Equal(t, "symdoc.builds", fc.subject)
	require.True(t, fc.flushed)

	var got Summary
	require.NoError(t, json.Unmarshal(fc.data, &got))
	require.Equal(t, s, got)

	require.NoError(t, p.Close())
	require.True(t, fc.closed)
}

func TestNATSPublisher_FlushError(t *testing.T) {
	fc := &fakeConn{flushErr: errors.New("no responders")}
	p := newNATSPublisher(fc, "symdoc.builds")
	err := p.Publish(context.Background(), Summary{BuildID: "b1"})
	require.ErrorContains(t, err, "no responders")
}

func TestNewNATSPublisher_RequiresSubject(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:4222", "")
	require.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(context.Background(), Summary{}))
	require.NoError(t, p.Close())
}
