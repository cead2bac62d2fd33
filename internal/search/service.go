// Package search implements case search against the e-Jagriti portal:
// request validation, the single upstream call and normalization of its
// response into CaseRecords.
package search

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	errordefs "github.com/lexi-legal/jagriti-proxy/internal/errors"
	"github.com/lexi-legal/jagriti-proxy/internal/event"
	"github.com/lexi-legal/jagriti-proxy/internal/metrics"
	"github.com/lexi-legal/jagriti-proxy/internal/model"
	"github.com/lexi-legal/jagriti-proxy/internal/normalize"
	"github.com/lexi-legal/jagriti-proxy/internal/telemetry"
)

// Upstream is the portal call the service depends on.
type Upstream interface {
	SearchCases(ctx context.Context, payload model.UpstreamPayload) ([]byte, error)
}

// Service runs case searches.
type Service struct {
	upstream   Upstream
	normalizer *Normalizer
	events     event.Publisher
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of the default date range.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets where SearchCompleted events go. The default drops them.
func WithPublisher(p event.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// NewService creates a Service calling upstream and recovering documents via docs.
func NewService(upstream Upstream, docs DocumentRecoverer, opts ...Option) *Service {
	s := &Service{
		upstream:   upstream,
		normalizer: NewNormalizer(docs),
		events:     event.NewNoop(),
		metrics:    metrics.NewMetrics(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates req, sends exactly one search of the given kind to the
// portal and returns the normalized records in portal order. Validation
// failures are JAGRITI_VALIDATION errors and reach no upstream. Portal
// failures are logged and produce an empty result with a nil error.
func (s *Service) Search(ctx context.Context, req model.SearchRequest, kind model.SearchKind) ([]model.CaseRecord, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "search.Search")
	defer span.End()

	payload, err := s.buildPayload(req, kind)
	if err != nil {
		s.metrics.SearchTotal.WithLabelValues(kind.Slug(), "invalid").Inc()
		return nil, err
	}
	span.SetAttributes(
		attribute.String("search.kind", kind.Slug()),
		attribute.Int64("search.commission_id", payload.CommissionID),
	)

	start := time.Now()
	records, err := s.dispatch(ctx, payload)
	degraded := err != nil
	if degraded {
		slog.Error("case search degraded to empty result",
			"kind", kind.Slug(),
			"commission_id", req.CommissionID,
			"error", err)
		records = []model.CaseRecord{}
	}
	span.SetAttributes(attribute.Int("search.results", len(records)), attribute.Bool("search.degraded", degraded))

	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	s.metrics.SearchTotal.WithLabelValues(kind.Slug(), outcome).Inc()

	evt := event.SearchCompleted{
		ID:           event.NewSearchID(start),
		Kind:         kind.Slug(),
		StateID:      req.StateID,
		CommissionID: req.CommissionID,
		FromDate:     payload.FromDate,
		ToDate:       payload.ToDate,
		Results:      len(records),
		Degraded:     degraded,
		Duration:     time.Since(start),
	}
	if err := s.events.PublishSearchCompleted(ctx, evt); err != nil {
		slog.Warn("failed to publish search event", "id", evt.ID, "error", err)
	}

	return records, nil
}

func (s *Service) dispatch(ctx context.Context, payload model.UpstreamPayload) ([]model.CaseRecord, error) {
	body, err := s.upstream.SearchCases(ctx, payload)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Parse(ctx, body)
}

// buildPayload validates req and fills in the default date window.
func (s *Service) buildPayload(req model.SearchRequest, kind model.SearchKind) (model.UpstreamPayload, error) {
	if !kind.Valid() {
		return model.UpstreamPayload{}, errordefs.NewWithDetails(errordefs.JAGRITI_VALIDATION,
			"unknown search kind", "", map[string]string{"kind": string(kind)})
	}

	if !normalize.ValidSearchValue(req.SearchValue) {
		return model.UpstreamPayload{}, errordefs.NewWithDetails(errordefs.JAGRITI_VALIDATION,
			"search_value must be at least 2 characters", "", map[string]string{"field": "search_value"})
	}

	commissionID, err := strconv.ParseInt(strings.TrimSpace(req.CommissionID), 10, 64)
	if err != nil {
		return model.UpstreamPayload{}, errordefs.NewWithDetails(errordefs.JAGRITI_VALIDATION,
			"commission_id must be numeric", "", map[string]string{"field": "commission_id"})
	}

	if req.FromDate != nil && req.ToDate != nil && req.FromDate.After(req.ToDate.Time) {
		return model.UpstreamPayload{}, errordefs.NewWithDetails(errordefs.JAGRITI_VALIDATION,
			"from_date must not be after to_date", "", map[string]string{"field": "from_date"})
	}

	from, to := normalize.DefaultDateRange(s.now())
	if req.FromDate != nil && !req.FromDate.IsZero() {
		from = req.FromDate.Time
	}
	if req.ToDate != nil && !req.ToDate.IsZero() {
		to = req.ToDate.Time
	}

	return model.UpstreamPayload{
		CommissionID:    commissionID,
		DateRequestType: model.DateRequestTypeFiling,
		FromDate:        normalize.FormatDate(from),
		ToDate:          normalize.FormatDate(to),
		JudgeID:         "",
		OrderType:       model.OrderTypeDaily,
		SearchType:      kind.Code(),
		SearchTypeValue: strings.TrimSpace(req.SearchValue),
	}, nil
}
