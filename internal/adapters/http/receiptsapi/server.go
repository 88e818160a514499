// Package receiptsapi serves the receipts API consumed by the dashboard.
package receiptsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tourism/internal/adapters/http/api"
	"github.com/okian/tourism/internal/domain/normalize"
	"github.com/okian/tourism/internal/receipts"
	"github.com/okian/tourism/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// Backend answers receipts queries.
type Backend interface {
	Dashboard(ctx context.Context, q receipts.Query) (normalize.WirePayload, error)
	Health(ctx context.Context) (receipts.Health, error)
}

// Server exposes the receipts API routes.
type Server struct {
	backend Backend
	origins []string
	timeout time.Duration
	logger  logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithQueryTimeout bounds each store query.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewServer creates a receipts API server.
func NewServer(backend Backend, opts ...Option) *Server {
	s := &Server{backend: backend, timeout: 10 * time.Second, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with CORS and request ids applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dashboard", api.MetricsMiddleware(s.handleDashboard, "receipts_dashboard"))
	mux.HandleFunc("GET /health", api.MetricsMiddleware(s.handleHealth, "receipts_health"))
	mux.HandleFunc("GET /healthz", api.NewHealthHandler().HandleHealth)
	return cors(s.origins, withRequestID(mux))
}

// errorBody is the receipts API error shape.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Detail: err.Error()})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	p, err := s.backend.Dashboard(ctx, q)
	switch {
	case errors.Is(err, receipts.ErrInvalidLimit), errors.Is(err, receipts.ErrUnknownYear):
		writeDetail(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, receipts.ErrNoData):
		writeDetail(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.logger.Error(r.Context(), "dashboard query failed",
			logger.String("request_id", w.Header().Get(requestIDHeader)),
			logger.Error(err),
		)
		writeDetail(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	h, err := s.backend.Health(ctx)
	if err != nil {
		writeDetail(w, http.StatusServiceUnavailable, fmt.Errorf("database unreachable: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func parseQuery(r *http.Request) (receipts.Query, error) {
	v := r.URL.Query()
	q := receipts.Query{Region: v.Get("region"), Limit: receipts.DefaultLimit}
	if raw := v.Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return receipts.Query{}, fmt.Errorf("year must be an integer: %q", raw)
		}
		q.Year = &y
	}
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return receipts.Query{}, fmt.Errorf("limit must be an integer: %q", raw)
		}
		q.Limit = n
	}
	return q, nil
}

// withRequestID echoes the caller's request id, or assigns one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
