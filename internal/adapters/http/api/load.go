package api

import (
	"errors"
	"net/http"

	service "github.com/okian/tourism/internal/app"
	"github.com/okian/tourism/internal/domain/model"
)

// LoadHandler runs one-off dashboard loads outside the shared state.
type LoadHandler struct {
	deps Dependencies
}

// NewLoadHandler creates a new load handler.
func NewLoadHandler(deps Dependencies) *LoadHandler {
	return &LoadHandler{deps: deps}
}

type dashboardResponse struct {
	Data     model.Dashboard `json:"data"`
	Notice   string          `json:"notice"`
	Degraded bool            `json:"degraded"`
}

// HandleDashboard handles GET /api/dashboard?year=&region=&limit= requests.
func (h *LoadHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard"

	q := r.URL.Query()
	f, err := parseFilters(op, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	limit, err := parseLimit(op, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.Dashboard(r.Context(), f, limit)
	switch {
	case errors.Is(err, service.ErrNoData):
		writeError(w, http.StatusServiceUnavailable, "no_data", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Data:     res.Data,
		Notice:   res.Notice(),
		Degraded: res.Degraded(),
	})
}
