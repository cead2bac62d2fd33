package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errordefs "github.com/lexi-legal/jagriti-proxy/internal/errors"
	"github.com/lexi-legal/jagriti-proxy/internal/event"
	"github.com/lexi-legal/jagriti-proxy/internal/model"
)

// stubUpstream records every payload and replies with a canned body.
type stubUpstream struct {
	mu       sync.Mutex
	payloads []model.UpstreamPayload
	body     string
	err      error
}

func (s *stubUpstream) SearchCases(ctx context.Context, payload model.UpstreamPayload) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

func (s *stubUpstream) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	events []event.SearchCompleted
	err    error
}

func (p *recordingPublisher) PublishSearchCompleted(ctx context.Context, evt event.SearchCompleted) error {
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var fixedNow = func() time.Time {
	return time.Date(2025, 3, 15, 14, 30, 0, 0, time.Local)
}

func newService(t *testing.T, up Upstream, pub event.Publisher) *Service {
	t.Helper()
	return NewService(up, newDocuments(t), WithClock(fixedNow), WithPublisher(pub))
}

func kumarRequest() model.SearchRequest {
	return model.SearchRequest{
		StateID:      "11290000",
		CommissionID: "15290525",
		SearchValue:  "KUMAR",
	}
}

func TestSearchKumarExample(t *testing.T) {
	up := &stubUpstream{body: `{"status":200,"data":[{"caseNumber":"DC/77/CC/104/2025","complainantName":"  Kumar   Lal "}]}`}
	pub := &recordingPublisher{}
	svc := newService(t, up, pub)

	records, err := svc.Search(context.Background(), kumarRequest(), model.KindComplainant)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Kumar Lal", records[0].Complainant)
	assert.Equal(t, "", records[0].DocumentLink)

	require.Equal(t, 1, up.calls())
	assert.Equal(t, model.UpstreamPayload{
		CommissionID:    15290525,
		DateRequestType: 1,
		FromDate:        "2025-02-13",
		ToDate:          "2025-03-15",
		JudgeID:         "",
		OrderType:       1,
		SearchType:      2,
		SearchTypeValue: "KUMAR",
	}, up.payloads[0])

	require.Len(t, pub.events, 1)
	assert.Equal(t, "complainant", pub.events[0].Kind)
	assert.Equal(t, 1, pub.events[0].Results)
	assert.False(t, pub.events[0].Degraded)
	assert.Len(t, pub.events[0].ID, 26)
}

func TestSearchShortValueNeverReachesUpstream(t *testing.T) {
	up := &stubUpstream{body: `{"status":200,"data":[]}`}
	pub := &recordingPublisher{}
	svc := newService(t, up, pub)

	for _, value := range []string{"", "K", "  K  ", "   "} {
		req := kumarRequest()
		req.SearchValue = value

		_, err := svc.Search(context.Background(), req, model.KindComplainant)
		require.Error(t, err, value)
		assert.True(t, errordefs.Is(err, errordefs.JAGRITI_VALIDATION))
	}

	assert.Equal(t, 0, up.calls())
	assert.Empty(t, pub.events)
}

func TestSearchValidation(t *testing.T) {
	from := model.NewDate(2025, 3, 1)
	to := model.NewDate(2025, 2, 1)

	tests := []struct {
		name string
		req  model.SearchRequest
		kind model.SearchKind
	}{
		{"unknown kind", kumarRequest(), model.SearchKind("PARTY")},
		{"non-numeric commission", model.SearchRequest{StateID: "1", CommissionID: "DCDF", SearchValue: "KUMAR"}, model.KindComplainant},
		{"empty commission", model.SearchRequest{StateID: "1", SearchValue: "KUMAR"}, model.KindComplainant},
		{"inverted range", model.SearchRequest{StateID: "1", CommissionID: "15290525", SearchValue: "KUMAR", FromDate: &from, ToDate: &to}, model.KindJudge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &stubUpstream{}
			_, err := newService(t, up, &recordingPublisher{}).Search(context.Background(), tt.req, tt.kind)
			require.Error(t, err)
			assert.Equal(t, errordefs.JAGRITI_VALIDATION, errordefs.CodeOf(err))
			assert.Equal(t, 0, up.calls())
		})
	}
}

func TestSearchDefaultsEachBoundIndependently(t *testing.T) {
	up := &stubUpstream{body: `{"status":200,"data":[]}`}
	svc := newService(t, up, &recordingPublisher{})

	from := model.NewDate(2024, 12, 1)
	req := kumarRequest()
	req.FromDate = &from
	_, err := svc.Search(context.Background(), req, model.KindRespondent)
	require.NoError(t, err)

	to := model.NewDate(2025, 1, 10)
	req = kumarRequest()
	req.ToDate = &to
	_, err = svc.Search(context.Background(), req, model.KindRespondent)
	require.NoError(t, err)

	require.Equal(t, 2, up.calls())
	assert.Equal(t, "2024-12-01", up.payloads[0].FromDate)
	assert.Equal(t, "2025-03-15", up.payloads[0].ToDate)
	assert.Equal(t, "2025-02-13", up.payloads[1].FromDate)
	assert.Equal(t, "2025-01-10", up.payloads[1].ToDate)
	assert.Equal(t, 3, up.payloads[1].SearchType)
}

func TestSearchKindCodes(t *testing.T) {
	up := &stubUpstream{body: `{"status":200,"data":[]}`}
	svc := newService(t, up, &recordingPublisher{})

	for _, kind := range model.SearchKinds {
		_, err := svc.Search(context.Background(), kumarRequest(), kind)
		require.NoError(t, err)
	}

	require.Equal(t, len(model.SearchKinds), up.calls())
	for i, p := range up.payloads {
		assert.Equal(t, i+1, p.SearchType)
	}
}

func TestSearchDegradesOnUpstreamFailure(t *testing.T) {
	tests := []struct {
		name string
		up   *stubUpstream
	}{
		{"transport error", &stubUpstream{err: errordefs.Upstream("connection refused", errors.New("dial tcp"))}},
		{"status not 200", &stubUpstream{body: `{"status":500,"message":"oops"}`}},
		{"malformed body", &stubUpstream{body: `not json`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			records, err := newService(t, tt.up, pub).Search(context.Background(), kumarRequest(), model.KindCaseNumber)
			require.NoError(t, err)
			require.NotNil(t, records)
			assert.Empty(t, records)
			assert.Equal(t, 1, tt.up.calls())

			require.Len(t, pub.events, 1)
			assert.True(t, pub.events[0].Degraded)
		})
	}
}

func TestSearchIgnoresPublishFailure(t *testing.T) {
	up := &stubUpstream{body: `{"status":200,"data":[{"caseNumber":"A"}]}`}
	pub := &recordingPublisher{err: errors.New("nats down")}

	records, err := newService(t, up, pub).Search(context.Background(), kumarRequest(), model.KindCaseNumber)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSearchTrimsSearchValue(t *testing.T) {
	up := &stubUpstream{body: `{"status":200,"data":[]}`}
	req := kumarRequest()
	req.SearchValue = "  DC/77/CC/104/2025 "

	_, err := newService(t, up, &recordingPublisher{}).Search(context.Background(), req, model.KindCaseNumber)
	require.NoError(t, err)
	assert.Equal(t, "DC/77/CC/104/2025", up.payloads[0].SearchTypeValue)
}
