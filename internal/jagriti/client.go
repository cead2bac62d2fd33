// internal/jagriti/client.go
// Package jagriti provides a client for the e-Jagriti consumer court portal.
// It issues the case search call and fetches the state and district
// commission reference lists.
package jagriti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	errordefs "github.com/lexi-legal/jagriti-proxy/internal/errors"
	"github.com/lexi-legal/jagriti-proxy/internal/metrics"
	"github.com/lexi-legal/jagriti-proxy/internal/model"
	"github.com/lexi-legal/jagriti-proxy/internal/telemetry"
)

// Portal paths, relative to the configured base URL.
const (
	SearchPath      = "/services/case/caseFilingService/v2/getCaseDetailsBySearchType"
	StatesPath      = "/services/report/report/getStateCommissionAndCircuitBench"
	CommissionsPath = "/services/report/report/getDistrictCommissionByCommissionId"
)

// The portal rejects requests that do not look like they came from its own UI.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxResponseBytes caps how much of a portal response is read. Search
// responses can embed base64 documents, so this is generous.
const maxResponseBytes = 64 << 20

// Client for interacting with the e-Jagriti portal.
// A single Client is shared by every request; its connection pool is
// released by Close.
type Client struct {
	base    string       // Base URL of the portal, without trailing slash
	hc      *http.Client // HTTP client with a fixed per-call timeout
	metrics *metrics.Metrics
}

// ReferenceEntry is one row of the portal's state or district commission list.
// Fields the portal sends as numbers or strings interchangeably are carried
// as strings.
type ReferenceEntry struct {
	CommissionID   string
	CommissionName string
	Active         bool
	CircuitBench   bool
}

// New creates a portal client with the specified base URL and per-call timeout.
func New(baseURL string, timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Transport: transport, Timeout: timeout},
		metrics: metrics.NewMetrics(),
	}
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.hc.CloseIdleConnections()
}

// SearchCases posts payload to the portal's case search endpoint and returns
// the raw response body. Any transport failure or non-200 status is a
// JAGRITI_UPSTREAM error.
func (c *Client) SearchCases(ctx context.Context, payload model.UpstreamPayload) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errordefs.Wrap(errordefs.JAGRITI_INTERNAL, "encode search payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+SearchPath, bytes.NewReader(body))
	if err != nil {
		return nil, errordefs.Upstream("build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.base+"/advance-case-search")
	req.Header.Set("Origin", c.base)

	return c.do(ctx, "search", req)
}

// States fetches the state commission list, circuit benches included.
func (c *Client) States(ctx context.Context) ([]ReferenceEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+StatesPath, nil)
	if err != nil {
		return nil, errordefs.Upstream("build states request", err)
	}
	req.Header.Set("Referer", c.base+"/")

	body, err := c.do(ctx, "states", req)
	if err != nil {
		return nil, err
	}
	return decodeReference(body)
}

// DistrictCommissions fetches the district commissions listed under stateID.
func (c *Client) DistrictCommissions(ctx context.Context, stateID string) ([]ReferenceEntry, error) {
	u, err := url.Parse(c.base + CommissionsPath)
	if err != nil {
		return nil, errordefs.Upstream("build commissions request", err)
	}
	q := u.Query()
	q.Set("commissionId", stateID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errordefs.Upstream("build commissions request", err)
	}
	req.Header.Set("Referer", c.base+"/")

	body, err := c.do(ctx, "commissions", req)
	if err != nil {
		return nil, err
	}
	return decodeReference(body)
}

// do executes req with the portal's browser headers and returns the body of a
// 200 response.
func (c *Client) do(ctx context.Context, endpoint string, req *http.Request) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "jagriti."+endpoint)
	defer span.End()
	req = req.WithContext(ctx)

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	outcome := "error"
	defer func() {
		c.metrics.UpstreamRequestTotal.WithLabelValues(endpoint, outcome).Inc()
		c.metrics.UpstreamRequestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.hc.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, errordefs.Upstream(endpoint+" request failed", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, errordefs.Upstream(endpoint+" response unreadable", err)
	}

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		return nil, errordefs.Upstream(fmt.Sprintf("%s returned %s", endpoint, resp.Status), nil)
	}

	outcome = "ok"
	return body, nil
}

// referenceEnvelope is the wrapper the portal puts around reference lists.
type referenceEnvelope struct {
	Error   flexString       `json:"error"`
	Status  flexString       `json:"status"`
	Message flexString       `json:"message"`
	Data    []referenceEntry `json:"data"`
}

type referenceEntry struct {
	CommissionID               flexString `json:"commissionId"`
	CommissionNameEn           flexString `json:"commissionNameEn"`
	ActiveStatus               flexString `json:"activeStatus"`
	CircuitAdditionBenchStatus flexString `json:"circuitAdditionBenchStatus"`
}

// decodeReference unwraps a reference envelope. The envelope is accepted only
// when error is false and status is 200.
func decodeReference(body []byte) ([]ReferenceEntry, error) {
	var env referenceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errordefs.Upstream("malformed reference response", err)
	}

	if isErr, err := strconv.ParseBool(string(env.Error)); err != nil || isErr {
		return nil, errordefs.Upstream(fmt.Sprintf("portal reported error: %s", env.Message), nil)
	}
	if string(env.Status) != "200" {
		return nil, errordefs.Upstream(fmt.Sprintf("portal reported status %q: %s", env.Status, env.Message), nil)
	}

	entries := make([]ReferenceEntry, 0, len(env.Data))
	for _, e := range env.Data {
		entries = append(entries, ReferenceEntry{
			CommissionID:   string(e.CommissionID),
			CommissionName: string(e.CommissionNameEn),
			Active:         truthy(e.ActiveStatus),
			CircuitBench:   truthy(e.CircuitAdditionBenchStatus),
		})
	}
	return entries, nil
}

// flexString accepts a JSON string, number or bool. Null, objects and arrays
// leave it empty.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), b[0] == '{', b[0] == '[':
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(b)
	}
	return nil
}

func truthy(f flexString) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(string(f)))
	return err == nil && b
}
