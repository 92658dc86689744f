// Package notify publishes build events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// EventBuildCompleted is the type of every published event.
const EventBuildCompleted = "build.completed"

// BuildEvent is the JSON payload published after each build.
type BuildEvent struct {
	Type        string    `json:"type"`
	BuildID     string    `json:"build_id"`
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
	DurationMS  int64     `json:"duration_ms"`
	Pages       int       `json:"pages"`
	Passthrough int       `json:"passthrough"`
	BrokenLinks int       `json:"broken_links"`
	Error       string    `json:"error,omitempty"`
}

// Notifier delivers build events.
type Notifier interface {
	Notify(ctx context.Context, ev BuildEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, BuildEvent) error { return nil }

// publisher is the subset of *nats.Conn used by NATSNotifier.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATSNotifier publishes events on a NATS subject.
type NATSNotifier struct {
	conn    publisher
	subject string
	timeout time.Duration
}

// NewNATSNotifier connects to url. An empty url yields Nop.
func NewNATSNotifier(url, subject string, timeout time.Duration) (Notifier, error) {
	if url == "" {
		return Nop{}, nil
	}
	conn, err := nats.Connect(url, nats.Name("docsite"), nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifier initialized", "url", url, "subject", subject)
	return newNATSNotifier(conn, subject, timeout), nil
}

func newNATSNotifier(conn publisher, subject string, timeout time.Duration) *NATSNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATSNotifier{conn: conn, subject: subject, timeout: timeout}
}

// Notify publishes ev and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, ev BuildEvent) error {
	if ev.Type == "" {
		ev.Type = EventBuildCompleted
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	if err := n.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}

	slog.Debug("Published build event", "build_id", ev.BuildID, "subject", n.subject)
	return nil
}

// Close closes the connection.
func (n *NATSNotifier) Close() {
	n.conn.Close()
}
