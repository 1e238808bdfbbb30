package api

import (
	"context"
	"encoding/json"
	"net/http"

	repository "github.com/okian/talentscope/internal/adapters/repository"
)

// WatchlistDependencies manages watchlisted seasons.
type WatchlistDependencies interface {
	Watchlist(ctx context.Context) ([]repository.WatchItem, error)
	AddWatch(ctx context.Context, id int64) (bool, error)
	RemoveWatch(ctx context.Context, id int64) (bool, error)
}

// WatchlistHandler handles watchlist requests.
type WatchlistHandler struct {
	deps WatchlistDependencies
}

// NewWatchlistHandler creates a new watchlist handler.
func NewWatchlistHandler(deps WatchlistDependencies) *WatchlistHandler {
	return &WatchlistHandler{deps: deps}
}

type watchRequest struct {
	SeasonID int64 `json:"season_id"`
}

type watchResponse struct {
	SeasonID int64 `json:"season_id"`
	Added    bool  `json:"added"`
}

// HandleList handles GET /watchlist.
func (h *WatchlistHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.deps.Watchlist(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.list_watchlist", err))
		return
	}
	writeJSON(w, http.StatusOK, newList(items))
}

// HandleAdd handles POST /watchlist. A new entry answers 201, an existing
// one 200.
func (h *WatchlistHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_watch"
	var req watchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil || req.SeasonID < 1 {
		writeFailure(w, NewKind(op, ErrInvalidID))
		return
	}
	added, err := h.deps.AddWatch(r.Context(), req.SeasonID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, watchResponse{SeasonID: req.SeasonID, Added: added})
}

// HandleRemove handles DELETE /watchlist/{id}.
func (h *WatchlistHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove_watch"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, NewKind(op, err))
		return
	}
	removed, err := h.deps.RemoveWatch(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if !removed {
		writeFailure(w, NewKind(op, repository.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
