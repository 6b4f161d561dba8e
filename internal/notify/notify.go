package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docpress/internal/logfields"
)

// RunCompleted is published once per finished pipeline run.
type RunCompleted struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Outcome     string    `json:"outcome"`
	Converted   int       `json:"converted"`
	Copied      int       `json:"copied"`
	Skipped     int       `json:"skipped"`
	Warnings    int       `json:"warnings"`
	DurationMS  int64     `json:"duration_ms"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Publisher delivers run events.
type Publisher interface {
	Publish(ctx context.Context, event RunCompleted) error
	Close() error
}

// NATSPublisher publishes run events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("notification subject is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("docpress"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", slog.String("url", url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends event and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, event RunCompleted) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	slog.Debug("Published run event", logfields.RunID(event.RunID), slog.String("subject", p.subject))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// Encode renders event as the JSON payload sent on the wire.
func Encode(event RunCompleted) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// NoopPublisher drops events; used when notifications are not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, RunCompleted) error { return nil }
func (NoopPublisher) Close() error                                { return nil }
