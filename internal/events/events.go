// Package events fans out interaction changes to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "storyx.interactions"

// InteractionEvent describes the state of a like or repost after a toggle.
type InteractionEvent struct {
	Kind      string `json:"kind"`
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
	Active    bool   `json:"active"`
	RepostID  string `json:"repost_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Subject is the NATS subject the event is published on.
func (e InteractionEvent) Subject() string {
	return subjectPrefix + "." + e.Kind
}

// Publisher delivers interaction events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event InteractionEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, InteractionEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }

// NATSPublisher publishes events as JSON on core NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Connect dials the NATS server at url.
func Connect(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("storyx"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, event InteractionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.conn.Publish(event.Subject(), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Subject(), err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
