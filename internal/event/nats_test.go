package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher("")
	_, ok := p.(*noop)
	require.True(t, ok)

	assert.NoError(t, p.PublishSearchCompleted(context.Background(), SearchCompleted{ID: "x"}))
	assert.NoError(t, p.Close())
}

func TestNewPublisherUnreachableFallsBack(t *testing.T) {
	p := NewPublisher("nats://127.0.0.1:1")
	_, ok := p.(*noop)
	assert.True(t, ok)
}

func TestNewSearchIDIsULID(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	id := NewSearchID(now)

	parsed, err := ulid.ParseStrict(id)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(now), parsed.Time())
}

func TestEncodeEnvelope(t *testing.T) {
	at := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	b, err := encodeEnvelope(SubjectSearchCompleted, SearchCompleted{
		ID:           "01JPCZ0000000000000000000",
		Kind:         "complainant",
		CommissionID: "15290525",
		Results:      3,
	}, at)
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(b, &env))
	assert.Equal(t, SubjectSearchCompleted, env["type"])
	assert.Equal(t, "1.0.0", env["version"])
	assert.Equal(t, "2025-03-15T10:00:00Z", env["occurredAt"])
	assert.NotEmpty(t, env["correlationId"])

	payload := env["payload"].(map[string]any)
	assert.Equal(t, "complainant", payload["kind"])
	assert.Equal(t, float64(3), payload["results"])
	assert.Equal(t, false, payload["degraded"])
}
