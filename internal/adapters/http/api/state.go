package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/tourism/internal/domain/model"
)

const maxFiltersBody = 1 << 12

// StateHandler exposes the background dashboard state and its controls.
type StateHandler struct {
	deps Dependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps Dependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

type filtersRequest struct {
	Year   *int    `json:"year"`
	Region *string `json:"region"`
}

type tokenResponse struct {
	Token uint64 `json:"token"`
}

// HandleState handles GET /api/state requests.
func (h *StateHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.State(r.Context()))
}

// HandleFilters handles POST /api/filters requests. An absent region
// selects all regions and an absent year selects the latest one.
func (h *StateHandler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	const op = "api.filters"

	var req filtersRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFiltersBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	f := model.Filters{Year: req.Year}
	if req.Region != nil {
		f.Region = *req.Region
	}
	token := h.deps.SetFilters(r.Context(), f)
	writeJSON(w, http.StatusAccepted, tokenResponse{Token: token})
}

// HandleRefresh handles POST /api/refresh requests.
func (h *StateHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusAccepted, tokenResponse{Token: h.deps.Refresh(r.Context())})
}
