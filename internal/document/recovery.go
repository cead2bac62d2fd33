// internal/document/recovery.go
// Package document recovers order documents embedded in portal search results.
// Base64 payloads are decoded, stored under a content hash and replaced by a
// link served from this process.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"
	"net"
	"strings"

	errordefs "github.com/lexi-legal/jagriti-proxy/internal/errors"
	"github.com/lexi-legal/jagriti-proxy/internal/metrics"
	"github.com/lexi-legal/jagriti-proxy/internal/storage"
)

// IDLength is the number of hex characters of the SHA-256 digest kept as id.
const IDLength = 32

// Portal fields that may carry a document, in precedence order.
const (
	fieldDirectPath     = "orderDocumentPath"
	fieldBase64         = "documentBase64"
	fieldJudgmentBase64 = "judgmentOrderDocumentBase64"
)

// Recoverer turns case entries into document links.
type Recoverer struct {
	store   storage.DocumentStore
	host    string // Host placed in generated links
	port    string
	metrics *metrics.Metrics
}

// NewRecoverer creates a Recoverer storing into store and building links for
// the given listen host and port.
func NewRecoverer(store storage.DocumentStore, host, port string) *Recoverer {
	return &Recoverer{
		store:   store,
		host:    LinkHost(host),
		port:    port,
		metrics: metrics.NewMetrics(),
	}
}

// Recover returns the document link for a raw case entry, or "" when the entry
// carries no document. A direct path from the portal wins over embedded
// payloads. An undecodable payload yields "" and a JAGRITI_DECODE error.
func (r *Recoverer) Recover(ctx context.Context, entry map[string]any) (string, error) {
	if path := stringField(entry, fieldDirectPath); path != "" {
		return path, nil
	}

	payload := stringField(entry, fieldBase64)
	if payload == "" {
		payload = stringField(entry, fieldJudgmentBase64)
	}
	if payload == "" {
		return "", nil
	}

	data, err := DecodePayload(payload)
	if err != nil {
		r.metrics.DocumentDecodeFailures.Inc()
		return "", errordefs.Decode("embedded document is not valid base64", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	id := ID(data)
	if err := r.store.Put(ctx, id, data); err != nil {
		return "", errordefs.Wrap(errordefs.JAGRITI_INTERNAL, "store document", err)
	}
	r.metrics.DocumentsStored.Inc()
	slog.Debug("stored embedded document", "id", id, "bytes", len(data))

	return r.Link(id), nil
}

// Retrieve returns a copy of the stored bytes for id.
func (r *Recoverer) Retrieve(ctx context.Context, id string) ([]byte, bool) {
	data, err := r.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("document lookup failed", "id", id, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Link is the absolute URL at which the document with id is served.
func (r *Recoverer) Link(id string) string {
	return "http://" + net.JoinHostPort(r.host, r.port) + "/documents/" + id
}

// ID is the content address of data.
func ID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:IDLength]
}

// LinkHost maps wildcard and loopback bind addresses to localhost so links are
// usable by a client on the same machine.
func LinkHost(host string) string {
	switch strings.TrimSpace(host) {
	case "", "0.0.0.0", "::", "127.0.0.1", "::1", "localhost":
		return "localhost"
	}
	return strings.TrimSpace(host)
}

// DecodePayload decodes a base64 document payload. Data-URL prefixes (anything
// up to the last comma) and embedded whitespace are ignored; padding is
// optional.
func DecodePayload(payload string) ([]byte, error) {
	if i := strings.LastIndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return -1
		}
		return r
	}, payload)
	payload = strings.TrimRight(payload, "=")

	data, err := base64.RawStdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if urlData, urlErr := base64.RawURLEncoding.DecodeString(payload); urlErr == nil {
		return urlData, nil
	}
	return nil, err
}

func stringField(entry map[string]any, key string) string {
	s, ok := entry[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
