// Package events publishes build-completed notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/mdsite/internal/retry"
)

// BuildEvent is published once per finished build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Outcome    string    `json:"outcome"`
	Pages      int       `json:"pages"`
	Failed     int       `json:"failed"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends build events.
type Publisher interface {
	PublishBuild(ctx context.Context, ev *BuildEvent) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) PublishBuild(context.Context, *BuildEvent) error { return nil }

func (Noop) Close() error { return nil }

// NATSPublisher publishes JSON encoded events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	retry   retry.Policy
}

// NewNATSPublisher connects to url. With useJetStream, events are published
// through JetStream and wait for the stream's acknowledgement.
func NewNATSPublisher(url, subject string, useJetStream bool, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	opts = append([]nats.Option{nats.Name("mdsite")}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := &NATSPublisher{conn: conn, subject: subject, retry: retry.NewPolicy(retry.ModeLinear, 0, 0, 0)}
	if useJetStream {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		p.js = js
	}

	slog.Info("NATS publisher initialized", "url", url, "subject", subject, "jetstream", useJetStream)
	return p, nil
}

// WithRetry retries failed publishes according to policy.
func (p *NATSPublisher) WithRetry(policy retry.Policy) *NATSPublisher {
	p.retry = policy
	return p
}

// PublishBuild publishes ev. A zero Timestamp is set to now.
func (p *NATSPublisher) PublishBuild(ctx context.Context, ev *BuildEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.retry.Do(ctx, func() error { return p.publish(ctx, data) }); err != nil {
		return err
	}

	slog.Debug("Published build event", "build_id", ev.BuildID, "outcome", ev.Outcome)
	return nil
}

func (p *NATSPublisher) publish(ctx context.Context, data []byte) error {
	if p.js != nil {
		if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		return nil
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
