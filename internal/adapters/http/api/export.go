package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/tourism/internal/adapters/export"
	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/internal/domain/ranking"
	"github.com/okian/tourism/pkg/metrics"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler downloads the current table rows.
type ExportHandler struct {
	deps Dependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleCSV handles GET /api/export.csv?sort=&dir= requests.
func (h *ExportHandler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "csv", contentTypeCSV, export.WriteCSV)
}

// HandleXLSX handles GET /api/export.xlsx?sort=&dir= requests.
func (h *ExportHandler) HandleXLSX(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "xlsx", contentTypeXLSX, export.WriteXLSX)
}

func (h *ExportHandler) serve(
	w http.ResponseWriter,
	r *http.Request,
	format, contentType string,
	write func(io.Writer, []model.CountryRow) error,
) {
	const op = "api.export"

	q := r.URL.Query()
	order, err := ranking.ParseOrder(q.Get("sort"), q.Get("dir"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	s := h.deps.State(r.Context())
	if !s.HasData() {
		writeError(w, http.StatusConflict, "no_state", wrapKind(op, ErrNoState, nil))
		return
	}

	var buf bytes.Buffer
	err = write(&buf, ranking.Sort(s.Data.TableRows, order))
	switch {
	case errors.Is(err, export.ErrNoRows):
		writeError(w, http.StatusConflict, "no_rows", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", wrapKind(op, ErrRender, err))
		return
	}

	metrics.RecordExport(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.BaseFilename+"."+format))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
