// internal/server/mux.go
// Package server implements the HTTP handlers and routing for the Jagriti proxy.
// It exposes case search, reference data and recovered documents, and maps
// the error taxonomy onto a single JSON error envelope.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	errordefs "github.com/lexi-legal/jagriti-proxy/internal/errors"
	"github.com/lexi-legal/jagriti-proxy/internal/metrics"
	"github.com/lexi-legal/jagriti-proxy/internal/model"
	"github.com/lexi-legal/jagriti-proxy/internal/schema"
	"github.com/lexi-legal/jagriti-proxy/internal/telemetry"
)

// ContextKey is used for context values to avoid collisions
// when storing values in request context
type ContextKey string

const (
	// ContextKeyCorrelationID stores the request's correlation id
	ContextKeyCorrelationID ContextKey = "correlationId"

	// MaxSearchBodyBytes bounds the size of a search request body
	MaxSearchBodyBytes = 64 << 10

	// ServiceName is reported by /health
	ServiceName = "Lexi Jagriti API"
)

// Searcher runs case searches.
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest, kind model.SearchKind) ([]model.CaseRecord, error)
}

// ReferenceData serves the cached state and commission lists.
type ReferenceData interface {
	States(ctx context.Context) []model.StateRef
	Commissions(ctx context.Context, stateID string) []model.CommissionRef
}

// Documents serves recovered document bytes.
type Documents interface {
	Retrieve(ctx context.Context, id string) ([]byte, bool)
}

// Mux handles HTTP requests for the proxy.
type Mux struct {
	router    chi.Router
	search    Searcher
	reference ReferenceData
	documents Documents
	validator *schema.Validator
	metrics   *metrics.Metrics

	// CORS configuration
	corsAllowedOrigins []string // Allowed origins for CORS (empty means deny all)
}

// NewMux creates the HTTP handler with every proxy endpoint registered.
func NewMux(search Searcher, reference ReferenceData, documents Documents, corsAllowedOrigins []string) (http.Handler, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}

	m := &Mux{
		router:             chi.NewRouter(),
		search:             search,
		reference:          reference,
		documents:          documents,
		validator:          validator,
		metrics:            metrics.NewMetrics(),
		corsAllowedOrigins: corsAllowedOrigins,
	}

	r := m.router
	r.Use(m.withCorrelationID)
	r.Use(m.withRequestLogging)
	r.Use(m.withRecovery)
	r.Use(withSecurityHeaders)
	r.Use(m.withCORS)

	r.NotFound(m.handleNotFound)
	r.MethodNotAllowed(m.handleMethodNotAllowed)

	r.Get("/health", m.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/states", m.handleStates)
	r.Get("/commissions/{state_id}", m.handleCommissions)
	r.Get("/documents/{id}", m.handleDocument)

	r.Route("/cases", func(r chi.Router) {
		for _, kind := range model.SearchKinds {
			r.Post("/by-"+kind.Slug(), m.handleSearch(kind))
		}
	})

	return m.router, nil
}

// writeJSON writes a successful JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response following the proxy error taxonomy
func writeError(w http.ResponseWriter, statusCode int, code, message, correlationID string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":          code,
			"message":       message,
			"correlationId": correlationID,
		},
	}

	if details != nil {
		response["error"].(map[string]interface{})["details"] = details
	}

	_ = json.NewEncoder(w).Encode(response)
}

// writeErrorDef writes an error response using the error definitions package
func writeErrorDef(w http.ResponseWriter, err *errordefs.Error) {
	writeError(w, err.HTTPStatus, string(err.Code), err.Message, err.CorrelationID, err.Details)
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyCorrelationID).(string)
	return id
}

// handleHealth reports liveness. It does not touch the portal.
func (m *Mux) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

func (m *Mux) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorDef(w, errordefs.New(errordefs.JAGRITI_NOT_FOUND, "route not found", correlationID(r.Context())))
}

func (m *Mux) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorDef(w, errordefs.New(errordefs.JAGRITI_METHOD_NOT_ALLOWED, "method not allowed", correlationID(r.Context())))
}

// handleStates handles GET /states
func (m *Mux) handleStates(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.Tracer().Start(r.Context(), "handleStates")
	defer span.End()

	states := m.reference.States(ctx)
	span.SetAttributes(attribute.Int("states.count", len(states)))
	writeJSON(w, http.StatusOK, states)
}

// handleCommissions handles GET /commissions/{state_id}
func (m *Mux) handleCommissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.Tracer().Start(r.Context(), "handleCommissions")
	defer span.End()

	stateID := chi.URLParam(r, "state_id")
	commissions := m.reference.Commissions(ctx, stateID)
	span.SetAttributes(
		attribute.String("state_id", stateID),
		attribute.Int("commissions.count", len(commissions)),
	)
	writeJSON(w, http.StatusOK, commissions)
}

// handleDocument handles GET /documents/{id}
func (m *Mux) handleDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, ok := m.documents.Retrieve(r.Context(), id)
	if !ok {
		writeErrorDef(w, errordefs.New(errordefs.JAGRITI_NOT_FOUND, "Document not found", correlationID(r.Context())))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+id+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleSearch returns the handler for POST /cases/by-<slug>
func (m *Mux) handleSearch(kind model.SearchKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := telemetry.Tracer().Start(r.Context(), "handleSearch")
		defer span.End()
		defer r.Body.Close()

		corrID := correlationID(ctx)
		span.SetAttributes(attribute.String("search.kind", kind.Slug()))

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxSearchBodyBytes))
		if err != nil {
			span.SetStatus(codes.Error, "unreadable body")
			writeErrorDef(w, errordefs.New(errordefs.JAGRITI_BAD_REQUEST, "request body could not be read", corrID))
			return
		}

		if err := m.validator.Validate(schema.SearchRequest, body); err != nil {
			span.SetStatus(codes.Error, "invalid request")
			var verr *schema.ValidationError
			if errors.As(err, &verr) {
				writeErrorDef(w, errordefs.NewWithDetails(errordefs.JAGRITI_VALIDATION, "request body failed validation", corrID, verr.Fields))
				return
			}
			writeErrorDef(w, errordefs.New(errordefs.JAGRITI_BAD_REQUEST, "invalid JSON", corrID))
			return
		}

		var req model.SearchRequest
		if err := json.Unmarshal(body, &req); err != nil {
			span.SetStatus(codes.Error, "invalid request")
			writeErrorDef(w, errordefs.New(errordefs.JAGRITI_VALIDATION, err.Error(), corrID))
			return
		}

		records, err := m.search.Search(ctx, req, kind)
		if err != nil {
			var e *errordefs.Error
			if errors.As(err, &e) && e.Code == errordefs.JAGRITI_VALIDATION {
				span.SetStatus(codes.Error, "invalid request")
				writeErrorDef(w, errordefs.NewWithDetails(e.Code, e.Message, corrID, e.Details))
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "search failed")
			slog.ErrorContext(ctx, "search failed", "kind", kind.Slug(), "correlation_id", corrID, "error", err)
			writeErrorDef(w, errordefs.New(errordefs.JAGRITI_INTERNAL, "Search failed", corrID))
			return
		}

		if records == nil {
			records = []model.CaseRecord{}
		}
		span.SetAttributes(attribute.Int("search.results", len(records)))
		writeJSON(w, http.StatusOK, records)
	}
}

// logRequest logs request details
func logRequest(r *http.Request, status int, duration time.Duration, correlationID string) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("user_agent", r.UserAgent()),
		slog.String("remote_addr", r.RemoteAddr),
	}

	if correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.LogAttrs(r.Context(), level, "request completed", attrs...)
}
