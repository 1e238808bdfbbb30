// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"io"
	"net/http"

	repository "github.com/okian/talentscope/internal/adapters/repository"
	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/internal/domain/scouting"
	"github.com/okian/talentscope/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	ScoreDependencies
	ProgressionDependencies
	LeaderboardDependencies
	RankDependencies
	WatchlistDependencies
	ExportDependencies
}

// PlayerDependencies covers season reads and per-season actions.
type PlayerDependencies interface {
	Player(ctx context.Context, id int64) (model.RatedPlayer, error)
	Players(ctx context.Context, opts repository.ListOpts) ([]model.RatedPlayer, error)
	Similar(ctx context.Context, id int64, n int) ([]model.SimilarPlayer, error)
	Report(ctx context.Context, id int64) (scouting.Report, error)
	EnqueueRecalculation(ctx context.Context, id int64) (string, error)
}

// ExportDependencies writes filtered seasons as CSV.
type ExportDependencies interface {
	Export(ctx context.Context, w io.Writer, opts repository.ListOpts) error
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	playersHandler     *PlayersHandler
	scoreHandler       *ScoreHandler
	progressionHandler *ProgressionHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	watchlistHandler   *WatchlistHandler
	exportHandler      *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		playersHandler:     NewPlayersHandler(deps),
		scoreHandler:       NewScoreHandler(deps),
		progressionHandler: NewProgressionHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
		watchlistHandler:   NewWatchlistHandler(deps),
		exportHandler:      NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	route("GET /players", "players", s.playersHandler.HandleList)
	route("GET /players/{id}", "player", s.playersHandler.HandleGet)
	route("GET /players/{id}/similar", "similar", s.playersHandler.HandleSimilar)
	route("GET /players/{id}/report", "report", s.playersHandler.HandleReport)
	route("POST /players/{id}/recalculate", "recalculate", s.playersHandler.HandleRecalculate)

	route("POST /score", "score", s.scoreHandler.HandleScore)
	route("POST /recalculate", "recalculate_all", s.progressionHandler.HandleRecalculateAll)
	route("GET /progression/{name}", "progression", s.progressionHandler.HandleGet)
	route("POST /progression", "progression_run", s.progressionHandler.HandleRun)

	route("GET /leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	route("GET /rank/{name}", "rank", s.rankHandler.HandleGetRank)

	route("GET /watchlist", "watchlist", s.watchlistHandler.HandleList)
	route("POST /watchlist", "watchlist_add", s.watchlistHandler.HandleAdd)
	route("DELETE /watchlist/{id}", "watchlist_remove", s.watchlistHandler.HandleRemove)

	route("GET /export", "export", s.exportHandler.HandleExport)
}
