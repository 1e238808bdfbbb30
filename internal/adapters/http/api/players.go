package api

import (
	"errors"
	"net/http"

	"github.com/okian/talentscope/internal/domain/dedupe"
)

// PlayersHandler serves season reads, similarity, reports and single
// season recalculation.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type listResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Count: len(items), Items: items}
}

// HandleList handles GET /players with optional position, season, club,
// q, best, limit and offset filters.
func (h *PlayersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_players"
	opts, err := listOpts(r)
	if err != nil {
		writeFailure(w, NewKind(op, err))
		return
	}
	players, err := h.deps.Players(r.Context(), opts)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newList(players))
}

// HandleGet handles GET /players/{id}.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, NewKind(op, err))
		return
	}
	p, err := h.deps.Player(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleSimilar handles GET /players/{id}/similar?n=N.
func (h *PlayersHandler) HandleSimilar(w http.ResponseWriter, r *http.Request) {
	const op = "api.similar_players"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, NewKind(op, err))
		return
	}
	n, err := queryInt(r, "n", 0)
	if err != nil {
		writeFailure(w, NewKind(op, err))
		return
	}
	similar, err := h.deps.Similar(r.Context(), id, n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newList(similar))
}

// HandleReport handles GET /players/{id}/report.
func (h *PlayersHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_report"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, NewKind(op, err))
		return
	}
	report, err := h.deps.Report(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type ackResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// HandleRecalculate handles POST /players/{id}/recalculate. The rescore
// runs asynchronously; a season that is already queued is acknowledged as
// a duplicate.
func (h *PlayersHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.recalculate_player"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, NewKind(op, err))
		return
	}
	jobID, err := h.deps.EnqueueRecalculation(r.Context(), id)
	if errors.Is(err, dedupe.ErrPending) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "pending", Duplicate: true})
		return
	}
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: jobID})
}
