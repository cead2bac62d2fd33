package document

import (
	"context"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errordefs "github.com/lexi-legal/jagriti-proxy/internal/errors"
	"github.com/lexi-legal/jagriti-proxy/internal/storage"
)

var linkPattern = regexp.MustCompile(`^http://localhost:8000/documents/[0-9a-f]{32}$`)

func newRecoverer(t *testing.T, host string) *Recoverer {
	t.Helper()
	store, err := storage.NewMemory(8, nil)
	require.NoError(t, err)
	return NewRecoverer(store, host, "8000")
}

func TestRecoverBase64Document(t *testing.T) {
	ctx := context.Background()
	r := newRecoverer(t, "0.0.0.0")
	pdf := []byte("%PDF-1.7 order of the district commission")

	link, err := r.Recover(ctx, map[string]any{
		"documentBase64": base64.StdEncoding.EncodeToString(pdf),
	})
	require.NoError(t, err)
	assert.Regexp(t, linkPattern, link)
	assert.Equal(t, "http://localhost:8000/documents/"+ID(pdf), link)

	got, ok := r.Retrieve(ctx, ID(pdf))
	require.True(t, ok)
	assert.Equal(t, pdf, got)
}

func TestRecoverIdenticalPayloadsShareID(t *testing.T) {
	ctx := context.Background()
	r := newRecoverer(t, "")
	encoded := base64.StdEncoding.EncodeToString([]byte("same bytes"))

	first, err := r.Recover(ctx, map[string]any{"documentBase64": encoded})
	require.NoError(t, err)
	second, err := r.Recover(ctx, map[string]any{"judgmentOrderDocumentBase64": "data:application/pdf;base64," + encoded})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecoverPrecedence(t *testing.T) {
	ctx := context.Background()
	r := newRecoverer(t, "localhost")
	a := base64.StdEncoding.EncodeToString([]byte("primary"))
	b := base64.StdEncoding.EncodeToString([]byte("judgment"))

	link, err := r.Recover(ctx, map[string]any{
		"orderDocumentPath": "https://e-jagriti.gov.in/orders/1.pdf",
		"documentBase64":    a,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://e-jagriti.gov.in/orders/1.pdf", link)

	link, err = r.Recover(ctx, map[string]any{
		"documentBase64":              a,
		"judgmentOrderDocumentBase64": b,
	})
	require.NoError(t, err)
	assert.Equal(t, r.Link(ID([]byte("primary"))), link)

	link, err = r.Recover(ctx, map[string]any{
		"documentBase64":              "",
		"judgmentOrderDocumentBase64": b,
	})
	require.NoError(t, err)
	assert.Equal(t, r.Link(ID([]byte("judgment"))), link)
}

func TestRecoverNoDocument(t *testing.T) {
	r := newRecoverer(t, "")

	link, err := r.Recover(context.Background(), map[string]any{"caseNumber": "DC/77/CC/104/2025"})
	require.NoError(t, err)
	assert.Equal(t, "", link)

	link, err = r.Recover(context.Background(), map[string]any{"documentBase64": nil, "orderDocumentPath": nil})
	require.NoError(t, err)
	assert.Equal(t, "", link)
}

func TestRecoverInvalidBase64(t *testing.T) {
	r := newRecoverer(t, "")

	link, err := r.Recover(context.Background(), map[string]any{"documentBase64": "@@not-base64@@"})
	require.Error(t, err)
	assert.True(t, errordefs.Is(err, errordefs.JAGRITI_DECODE))
	assert.Equal(t, "", link)
}

func TestRetrieveUnknownID(t *testing.T) {
	r := newRecoverer(t, "")

	_, ok := r.Retrieve(context.Background(), "0123456789abcdef0123456789abcdef")
	assert.False(t, ok)
}

func TestDecodePayloadTolerance(t *testing.T) {
	want := []byte("hello, jagriti")
	padded := base64.StdEncoding.EncodeToString(want)
	raw := base64.RawStdEncoding.EncodeToString(want)

	for name, in := range map[string]string{
		"padded":     padded,
		"unpadded":   raw,
		"whitespace": " " + padded[:6] + "\n" + padded[6:] + "\t",
		"data url":   "data:application/pdf;base64," + padded,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := DecodePayload(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLinkHost(t *testing.T) {
	for _, h := range []string{"", "0.0.0.0", "::", "127.0.0.1", "::1", "localhost"} {
		assert.Equal(t, "localhost", LinkHost(h), h)
	}
	assert.Equal(t, "api.example.org", LinkHost("api.example.org"))

	r := NewRecoverer(nil, "fd00::10", "9000")
	assert.Equal(t, "http://[fd00::10]:9000/documents/abc", r.Link("abc"))
}
