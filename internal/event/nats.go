// internal/event/nats.go
// Package event provides NATS JetStream publishing of search events.
// Downstream consumers use the stream to watch search volume and portal
// degradation without polling the proxy.
package event

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// Stream layout on the NATS server.
const (
	StreamName             = "JAGRITI_SEARCHES"
	SubjectSearchCompleted = "jagriti.searches.completed"
)

// Publisher interface defines the event publishing operations required by the search service.
type Publisher interface {
	// PublishSearchCompleted records the outcome of a dispatched search
	PublishSearchCompleted(ctx context.Context, evt SearchCompleted) error

	// Close closes the publisher connection
	Close() error
}

// SearchCompleted describes one search that reached the portal.
type SearchCompleted struct {
	ID           string        `json:"id"` // ULID, sortable by time
	Kind         string        `json:"kind"`
	StateID      string        `json:"stateId"`
	CommissionID string        `json:"commissionId"`
	FromDate     string        `json:"fromDate"`
	ToDate       string        `json:"toDate"`
	Results      int           `json:"results"`
	Degraded     bool          `json:"degraded"` // The portal call or its parsing failed
	Duration     time.Duration `json:"durationNs"`
}

// NewSearchID returns a fresh ULID for a SearchCompleted event.
func NewSearchID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String()
}

// EventEnvelope represents the standard event envelope structure.
type EventEnvelope struct {
	Type          string      `json:"type"`
	Version       string      `json:"version"`
	OccurredAt    time.Time   `json:"occurredAt"`
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload"`
}

// noop is used when NATS is not configured or unreachable.
type noop struct{}

// NewNoop returns a Publisher that drops every event.
func NewNoop() Publisher { return &noop{} }

func (n *noop) Close() error { return nil }

func (n *noop) PublishSearchCompleted(ctx context.Context, evt SearchCompleted) error {
	return nil
}

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// NewPublisher connects to the NATS server at url. An empty url, or any
// failure to connect or set up the stream, yields the no-op publisher so the
// proxy keeps serving without events.
func NewPublisher(url string) Publisher {
	if url == "" {
		return &noop{}
	}

	nc, err := nats.Connect(url, nats.Name("jagriti-proxy"), nats.Timeout(5*time.Second))
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	if err := initStreams(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	return &natsPub{nc: nc, js: js}
}

// initStreams creates the search stream if it does not exist yet.
func initStreams(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"jagriti.searches.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s stream: %w", StreamName, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// PublishSearchCompleted wraps evt in an envelope and publishes it, using the
// event id as the JetStream message id so redelivered publishes are dropped.
func (p *natsPub) PublishSearchCompleted(ctx context.Context, evt SearchCompleted) error {
	b, err := encodeEnvelope(SubjectSearchCompleted, evt, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = p.js.Publish(SubjectSearchCompleted, b, nats.Context(ctx), nats.MsgId(evt.ID))
	return err
}

func encodeEnvelope(eventType string, payload interface{}, at time.Time) ([]byte, error) {
	envelope := EventEnvelope{
		Type:          eventType,
		Version:       "1.0.0",
		OccurredAt:    at,
		CorrelationID: uuid.New().String(),
		Payload:       payload,
	}
	return json.Marshal(envelope)
}
