package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	jobqueue "github.com/okian/talentscope/internal/adapters/mq/queue"
	repository "github.com/okian/talentscope/internal/adapters/repository"
	service "github.com/okian/talentscope/internal/app"
	"github.com/okian/talentscope/internal/domain/dedupe"
	"github.com/okian/talentscope/internal/domain/model"
)

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

// writeFailure maps err onto a status code and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, service.ErrEmptyName):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrBackpressure),
		errors.Is(err, jobqueue.ErrQueueFull),
		errors.Is(err, dedupe.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, jobqueue.ErrQueueClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidLimit
	}
	return n, nil
}

// queryPosition parses an optional position filter. Empty means all.
func queryPosition(r *http.Request) (model.Position, error) {
	raw := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("position")))
	if raw == "" {
		return "", nil
	}
	p := model.Position(raw)
	if !p.Valid() {
		return "", ErrBadRequest
	}
	return p, nil
}

// listOpts reads the shared season filters of /players and /export.
func listOpts(r *http.Request) (repository.ListOpts, error) {
	q := r.URL.Query()
	pos, err := queryPosition(r)
	if err != nil {
		return repository.ListOpts{}, err
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return repository.ListOpts{}, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return repository.ListOpts{}, err
	}
	best, _ := strconv.ParseBool(q.Get("best"))
	return repository.ListOpts{
		Position: pos,
		Season:   strings.TrimSpace(q.Get("season")),
		Club:     strings.TrimSpace(q.Get("club")),
		Query:    strings.TrimSpace(q.Get("q")),
		BestOnly: best,
		Limit:    limit,
		Offset:   offset,
	}, nil
}
