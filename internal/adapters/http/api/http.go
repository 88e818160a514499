// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	service "github.com/okian/tourism/internal/app"
	"github.com/okian/tourism/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// State returns a snapshot of the background dashboard state.
	State(ctx context.Context) service.State
	// SetFilters and Refresh start an asynchronous load and return its token.
	SetFilters(ctx context.Context, f model.Filters) uint64
	Refresh(ctx context.Context) uint64
	// Dashboard loads synchronously without touching the shared state.
	Dashboard(ctx context.Context, f model.Filters, limit int) (service.Result, error)
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	stateHandler     *StateHandler
	loadHandler      *LoadHandler
	exportHandler    *ExportHandler
	chartsHandler    *ChartsHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		stateHandler:     NewStateHandler(deps),
		loadHandler:      NewLoadHandler(deps),
		exportHandler:    NewExportHandler(deps),
		chartsHandler:    NewChartsHandler(deps),
		dashboardHandler: newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/state", MetricsMiddleware(s.stateHandler.HandleState, "state"))
	mux.HandleFunc("POST /api/filters", MetricsMiddleware(s.stateHandler.HandleFilters, "filters"))
	mux.HandleFunc("POST /api/refresh", MetricsMiddleware(s.stateHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("GET /api/dashboard", MetricsMiddleware(s.loadHandler.HandleDashboard, "dashboard"))
	mux.HandleFunc("GET /api/export.csv", MetricsMiddleware(s.exportHandler.HandleCSV, "export_csv"))
	mux.HandleFunc("GET /api/export.xlsx", MetricsMiddleware(s.exportHandler.HandleXLSX, "export_xlsx"))
	mux.HandleFunc("GET /api/charts/top.png", MetricsMiddleware(s.chartsHandler.HandleTop, "chart_top"))
	mux.HandleFunc("GET /api/charts/trends.png", MetricsMiddleware(s.chartsHandler.HandleTrends, "chart_trends"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseFilters reads year and region from query values. A missing year
// selects the latest one.
func parseFilters(op string, q url.Values) (model.Filters, error) {
	f := model.Filters{Region: q.Get("region")}
	if raw := q.Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return model.Filters{}, wrapKind(op, ErrBadRequest, err)
		}
		f.Year = &y
	}
	return f.Normalized(), nil
}

// parseLimit reads the limit query value. Zero lets the loader apply its
// default.
func parseLimit(op string, q url.Values) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, wrapKind(op, ErrBadRequest, err)
	}
	return n, nil
}
