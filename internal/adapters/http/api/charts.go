package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/okian/tourism/internal/adapters/charts"
	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/pkg/metrics"
)

// ChartsHandler renders PNG charts of the current state.
type ChartsHandler struct {
	deps Dependencies
}

// NewChartsHandler creates a new charts handler.
func NewChartsHandler(deps Dependencies) *ChartsHandler {
	return &ChartsHandler{deps: deps}
}

// HandleTop handles GET /api/charts/top.png requests.
func (h *ChartsHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "top", charts.TopCountries)
}

// HandleTrends handles GET /api/charts/trends.png requests.
func (h *ChartsHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "trends", charts.Trends)
}

func (h *ChartsHandler) serve(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	render func(io.Writer, model.Dashboard, charts.Size) error,
) {
	const op = "api.charts"

	s := h.deps.State(r.Context())
	if !s.HasData() {
		writeError(w, http.StatusConflict, "no_state", wrapKind(op, ErrNoState, nil))
		return
	}

	var buf bytes.Buffer
	err := render(&buf, *s.Data, charts.DefaultSize)
	switch {
	case errors.Is(err, charts.ErrEmpty):
		writeError(w, http.StatusConflict, "empty_chart", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", wrapKind(op, ErrRender, err))
		return
	}

	metrics.RecordChartRendered(name)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
