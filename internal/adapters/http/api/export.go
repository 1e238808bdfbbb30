package api

import (
	"bytes"
	"net/http"
)

// ExportHandler streams seasons as CSV.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /export with the same filters as GET /players.
// The body is buffered so a failed query still yields a JSON error.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	opts, err := listOpts(r)
	if err != nil {
		writeFailure(w, NewKind(op, err))
		return
	}
	var buf bytes.Buffer
	if err := h.deps.Export(r.Context(), &buf, opts); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="players.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
