// Package conformance provides an end-to-end harness that runs the full proxy
// stack against a stub e-Jagriti portal.
package conformance

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/lexi-legal/jagriti-proxy/internal/document"
	"github.com/lexi-legal/jagriti-proxy/internal/event"
	"github.com/lexi-legal/jagriti-proxy/internal/jagriti"
	"github.com/lexi-legal/jagriti-proxy/internal/model"
	"github.com/lexi-legal/jagriti-proxy/internal/reference"
	"github.com/lexi-legal/jagriti-proxy/internal/search"
	"github.com/lexi-legal/jagriti-proxy/internal/server"
	"github.com/lexi-legal/jagriti-proxy/internal/storage"
)

// Portal is a stub of the e-Jagriti endpoints the proxy calls. It counts calls
// per path and replies with whatever the test configured.
type Portal struct {
	server *httptest.Server

	mu           sync.Mutex
	calls        map[string]int
	searchStatus int
	searchBody   string
	lastSearch   map[string]any
	statesBody   string
	commissions  map[string]string
}

// NewPortal starts a stub portal serving an empty case list and a small
// state and commission list.
func NewPortal() *Portal {
	p := &Portal{
		calls:        make(map[string]int),
		searchStatus: http.StatusOK,
		searchBody:   `{"status":200,"data":[]}`,
		statesBody: `{"error":"false","status":200,"message":"ok","data":[
			{"commissionId":11290000,"commissionNameEn":"Karnataka","activeStatus":true,"circuitAdditionBenchStatus":false},
			{"commissionId":11290001,"commissionNameEn":"Karnataka Circuit Bench","activeStatus":true,"circuitAdditionBenchStatus":true}
		]}`,
		commissions: map[string]string{
			"11290000": `{"error":"false","status":200,"data":[
				{"commissionId":15290525,"commissionNameEn":"Bangalore 1st & Rural Additional","activeStatus":true}
			]}`,
		},
	}
	p.server = httptest.NewServer(http.HandlerFunc(p.serve))
	return p
}

func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[r.URL.Path]++

	switch r.URL.Path {
	case jagriti.SearchPath:
		body, _ := io.ReadAll(r.Body)
		p.lastSearch = nil
		_ = json.Unmarshal(body, &p.lastSearch)
		w.WriteHeader(p.searchStatus)
		_, _ = io.WriteString(w, p.searchBody)
	case jagriti.StatesPath:
		_, _ = io.WriteString(w, p.statesBody)
	case jagriti.CommissionsPath:
		body, ok := p.commissions[r.URL.Query().Get("commissionId")]
		if !ok {
			body = `{"error":"false","status":200,"data":[]}`
		}
		_, _ = io.WriteString(w, body)
	default:
		http.NotFound(w, r)
	}
}

// SetSearchResponse changes what the case search endpoint returns.
func (p *Portal) SetSearchResponse(status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchStatus = status
	p.searchBody = body
}

// Calls reports how many requests reached path.
func (p *Portal) Calls(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[path]
}

// LastSearch is the decoded body of the most recent case search.
func (p *Portal) LastSearch() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSearch
}

// URL returns the base URL of the stub portal.
func (p *Portal) URL() string {
	return p.server.URL
}

// Close shuts the stub portal down.
func (p *Portal) Close() {
	p.server.Close()
}

// Harness runs the proxy, wired as in production, in front of a Portal.
type Harness struct {
	Portal *Portal
	server *httptest.Server
	client *jagriti.Client
	pub    event.Publisher
}

// NewHarness creates a new conformance test harness.
func NewHarness() (*Harness, error) {
	portal := NewPortal()

	// The listener is needed up front so document links point back at it
	srv := httptest.NewUnstartedServer(nil)
	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		portal.Close()
		return nil, fmt.Errorf("listener address: %w", err)
	}

	client := jagriti.New(portal.URL(), 5*time.Second)
	store, err := storage.NewMemory(64, nil)
	if err != nil {
		portal.Close()
		return nil, err
	}
	documents := document.NewRecoverer(store, host, port)
	refs := reference.New(client, time.Hour)
	pub := event.NewNoop()
	svc := search.NewService(client, documents, search.WithPublisher(pub))

	mux, err := server.NewMux(svc, refs, documents, []string{"*"})
	if err != nil {
		portal.Close()
		return nil, fmt.Errorf("failed to build handlers: %w", err)
	}
	srv.Config.Handler = mux
	srv.Start()

	return &Harness{Portal: portal, server: srv, client: client, pub: pub}, nil
}

// URL returns the base URL of the proxy under test.
func (h *Harness) URL() string {
	return h.server.URL
}

// Close shuts down the proxy and the stub portal.
func (h *Harness) Close() {
	h.server.Close()
	h.client.Close()
	h.pub.Close()
	h.Portal.Close()
}

// RunConformanceTests runs every end-to-end scenario against the harness.
// Scenarios share the harness, so each one sets the portal response it needs.
func (h *Harness) RunConformanceTests(t *testing.T) {
	t.Run("Health", h.testHealth)
	t.Run("ComplainantSearch", h.testComplainantSearch)
	t.Run("ShortSearchValue", h.testShortSearchValue)
	t.Run("UpstreamFailure", h.testUpstreamFailure)
	t.Run("DocumentRoundTrip", h.testDocumentRoundTrip)
	t.Run("ReferenceData", h.testReferenceData)
}

func (h *Harness) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(h.URL()+path, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("failed to POST %s: %v", path, err)
	}
	return resp
}

func (h *Harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.URL() + path)
	if err != nil {
		t.Fatalf("failed to GET %s: %v", path, err)
	}
	return resp
}

func decodeCases(t *testing.T, resp *http.Response) []model.CaseRecord {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, b)
	}
	var records []model.CaseRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode cases: %v", err)
	}
	if records == nil {
		t.Fatalf("expected a JSON array, got null")
	}
	return records
}

const kumarRequest = `{"state_id":"11290000","commission_id":"15290525","search_value":"KUMAR","from_date":null,"to_date":null}`

// testHealth tests the health check endpoint.
func (h *Harness) testHealth(t *testing.T) {
	resp := h.get(t, "/health")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200 for /health, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["status"] != "healthy" || body["service"] != "Lexi Jagriti API" {
		t.Errorf("unexpected health body: %v", body)
	}
}

// testComplainantSearch runs the KUMAR search through every layer.
func (h *Harness) testComplainantSearch(t *testing.T) {
	h.Portal.SetSearchResponse(http.StatusOK,
		`{"status":200,"data":[{"caseNumber":"DC/77/CC/104/2025","complainantName":"  Kumar   Lal "}]}`)
	before := h.Portal.Calls(jagriti.SearchPath)

	records := decodeCases(t, h.post(t, "/cases/by-complainant", kumarRequest))

	if got := h.Portal.Calls(jagriti.SearchPath) - before; got != 1 {
		t.Errorf("expected exactly one upstream search, got %d", got)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Complainant != "Kumar Lal" {
		t.Errorf("complainant = %q, want %q", records[0].Complainant, "Kumar Lal")
	}
	if records[0].DocumentLink != "" {
		t.Errorf("document_link = %q, want empty", records[0].DocumentLink)
	}

	payload := h.Portal.LastSearch()
	if payload["serchType"] != float64(2) || payload["commissionId"] != float64(15290525) || payload["serchTypeValue"] != "KUMAR" {
		t.Errorf("unexpected upstream payload: %v", payload)
	}
	today := time.Now().Format(model.DateLayout)
	if payload["toDate"] != today {
		t.Errorf("toDate = %v, want %s", payload["toDate"], today)
	}
}

// testShortSearchValue verifies validation stops a search before the portal.
func (h *Harness) testShortSearchValue(t *testing.T) {
	before := h.Portal.Calls(jagriti.SearchPath)

	resp := h.post(t, "/cases/by-respondent", `{"state_id":"11290000","commission_id":"15290525","search_value":" K "}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
	if got := h.Portal.Calls(jagriti.SearchPath) - before; got != 0 {
		t.Errorf("expected no upstream search, got %d", got)
	}
}

// testUpstreamFailure verifies portal failures degrade to an empty list.
func (h *Harness) testUpstreamFailure(t *testing.T) {
	for _, tc := range []struct {
		status int
		body   string
	}{
		{http.StatusInternalServerError, `oops`},
		{http.StatusOK, `{"status":500,"message":"internal"}`},
		{http.StatusOK, `{"status":200,"data":"unexpected"}`},
	} {
		h.Portal.SetSearchResponse(tc.status, tc.body)
		records := decodeCases(t, h.post(t, "/cases/by-case-number", kumarRequest))
		if len(records) != 0 {
			t.Errorf("portal %d %s: expected empty list, got %d records", tc.status, tc.body, len(records))
		}
	}
}

var documentLink = regexp.MustCompile(`^http://[^/]+/documents/([0-9a-f]{32})$`)

// testDocumentRoundTrip verifies an embedded document is served back.
func (h *Harness) testDocumentRoundTrip(t *testing.T) {
	pdf := []byte("%PDF-1.4\nfinal order of the district commission")
	encoded := base64.StdEncoding.EncodeToString(pdf)
	h.Portal.SetSearchResponse(http.StatusOK, `{"status":200,"data":{"cases":[
		{"caseNumber":"A","documentBase64":"`+encoded+`"},
		{"caseNumber":"B","judgmentOrderDocumentBase64":"`+encoded+`"}
	]}}`)

	records := decodeCases(t, h.post(t, "/cases/by-case-number", kumarRequest))
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	m := documentLink.FindStringSubmatch(records[0].DocumentLink)
	if m == nil {
		t.Fatalf("unexpected document link %q", records[0].DocumentLink)
	}
	if records[1].DocumentLink != records[0].DocumentLink {
		t.Errorf("identical payloads produced different links: %q vs %q", records[0].DocumentLink, records[1].DocumentLink)
	}
	if m[1] != document.ID(pdf) {
		t.Errorf("document id = %s, want %s", m[1], document.ID(pdf))
	}

	resp := h.get(t, "/documents/"+m[1])
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for document, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	got, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(got, pdf) {
		t.Errorf("document bytes differ: got %q", got)
	}

	missing := h.get(t, "/documents/00000000000000000000000000000000")
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown document, got %d", missing.StatusCode)
	}
}

// testReferenceData verifies reference lists are fetched once and filtered.
func (h *Harness) testReferenceData(t *testing.T) {
	for i := 0; i < 2; i++ {
		resp := h.get(t, "/states")
		var states []model.StateRef
		if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
			t.Fatalf("decode states: %v", err)
		}
		resp.Body.Close()
		if len(states) != 1 || states[0].StateName != "KARNATAKA" || states[0].StateID != "11290000" {
			t.Errorf("unexpected states: %+v", states)
		}
	}
	if got := h.Portal.Calls(jagriti.StatesPath); got != 1 {
		t.Errorf("expected one upstream states fetch, got %d", got)
	}

	resp := h.get(t, "/commissions/11290000")
	var commissions []model.CommissionRef
	if err := json.NewDecoder(resp.Body).Decode(&commissions); err != nil {
		t.Fatalf("decode commissions: %v", err)
	}
	resp.Body.Close()
	if len(commissions) != 1 || commissions[0].CommissionID != "15290525" || commissions[0].StateID != "11290000" {
		t.Errorf("unexpected commissions: %+v", commissions)
	}
}
