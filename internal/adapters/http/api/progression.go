package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jobqueue "github.com/okian/talentscope/internal/adapters/mq/queue"
	"github.com/okian/talentscope/internal/domain/dedupe"
	"github.com/okian/talentscope/internal/domain/model"
)

// ProgressionDependencies covers player histories and population-wide
// recomputation.
type ProgressionDependencies interface {
	Progression(ctx context.Context, name string) ([]model.RatedPlayer, error)
	RunProgression(ctx context.Context) ([]model.ProgressionRow, error)
	EnqueueAll(ctx context.Context) (int, error)
}

// ProgressionHandler handles progression and bulk recalculation requests.
type ProgressionHandler struct {
	deps ProgressionDependencies
}

// NewProgressionHandler creates a new progression handler.
func NewProgressionHandler(deps ProgressionDependencies) *ProgressionHandler {
	return &ProgressionHandler{deps: deps}
}

// HandleGet handles GET /progression/{name}.
func (h *ProgressionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_progression"
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	seasons, err := h.deps.Progression(r.Context(), name)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newList(seasons))
}

type progressionRunResponse struct {
	Rows int `json:"rows"`
}

// HandleRun handles POST /progression. It recomputes every trajectory
// synchronously.
func (h *ProgressionHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	rows, err := h.deps.RunProgression(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.run_progression", err))
		return
	}
	writeJSON(w, http.StatusOK, progressionRunResponse{Rows: len(rows)})
}

type recalculateAllResponse struct {
	Status  string `json:"status"`
	Queued  int    `json:"queued"`
	Partial bool   `json:"partial"`
}

// HandleRecalculateAll handles POST /recalculate. Seasons are queued for
// the worker pool; when the queue fills up the seasons queued so far are
// reported with partial set.
func (h *ProgressionHandler) HandleRecalculateAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.EnqueueAll(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, recalculateAllResponse{Status: "accepted", Queued: n})
	case n > 0 && (errors.Is(err, jobqueue.ErrQueueFull) || errors.Is(err, dedupe.ErrFull)):
		writeJSON(w, http.StatusAccepted, recalculateAllResponse{Status: "accepted", Queued: n, Partial: true})
	default:
		writeFailure(w, Wrap("api.recalculate_all", err))
	}
}
