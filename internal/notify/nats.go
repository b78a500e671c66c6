package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

const publishTimeout = 5 * time.Second

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes summaries on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	nc, err := nats.Connect(url, nats.Name("symdoc"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher initialized", slog.String("url", url), slog.String("subject", subject))
	return newNATSPublisher(nc, subject), nil
}

func newNATSPublisher(c conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, logger: slog.Default()}
}

// WithLogger sets the logger.
func (p *NATSPublisher) WithLogger(logger *slog.Logger) *NATSPublisher {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Publish sends s and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}

	p.logger.Debug("Published build summary",
		logfields.BuildID(s.BuildID),
		slog.String("subject", p.subject),
		slog.String("status", s.Status))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
