// Package repository persists player seasons and their ratings and keeps
// the in-memory potential leaderboard.
package repository

import (
	"context"
	"time"

	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/internal/domain/types"
)

// ListOpts filters season listings. Zero values mean no filter.
type ListOpts struct {
	Position model.Position
	Season   string
	Club     string
	Query    string // case-insensitive match on player or club name
	BestOnly bool   // only each player's best-potential season
	Limit    int
	Offset   int
}

// RatingUpdate pairs a season ID with a freshly computed bundle.
type RatingUpdate struct {
	ID     int64
	Rating model.RatingBundle
}

// WatchItem is a watchlisted season.
type WatchItem struct {
	model.RatedPlayer
	AddedAt time.Time `json:"added_at"`
}

// Stats summarises the stored population using each player's best season.
type Stats struct {
	TotalPlayers           int                `json:"total_players"`
	TotalRecords           int                `json:"total_records"`
	ScoredRecords          int                `json:"scored_records"`
	ByPosition             map[string]int     `json:"by_position"`
	AvgPotentialByPosition map[string]float64 `json:"avg_potential_by_position"`
	AvgPotential           float64            `json:"avg_potential"`
	MaxPotential           float64            `json:"max_potential"`
	EliteCount             int                `json:"elite_count"`
	Seasons                []string           `json:"seasons"`
	Clubs                  []string           `json:"clubs"`
}

// Seasons is the durable season store.
type Seasons interface {
	Replace(ctx context.Context, seasons []model.PlayerSeason) ([]int64, error)
	Insert(ctx context.Context, seasons []model.PlayerSeason) ([]int64, error)
	Reset(ctx context.Context) error

	Get(ctx context.Context, id int64) (model.RatedPlayer, error)
	List(ctx context.Context, opts ListOpts) ([]model.RatedPlayer, error)
	Progression(ctx context.Context, name string) ([]model.RatedPlayer, error)
	BestSeason(ctx context.Context, name string) (model.RatedPlayer, error)
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)

	SaveRatings(ctx context.Context, updates []RatingUpdate) error
	SaveTrajectories(ctx context.Context, rows []model.ProgressionRow) error
	RefreshBestSeasons(ctx context.Context, names ...string) error

	AddWatch(ctx context.Context, id int64) (bool, error)
	RemoveWatch(ctx context.Context, id int64) (bool, error)
	Watchlist(ctx context.Context) ([]WatchItem, error)

	Close() error
}

// Ranking provides read/write access to the leaderboard.
type Ranking interface {
	// Upsert sets the entry of a player, replacing any previous one.
	Upsert(ctx context.Context, e types.Entry)
	// UpdateBest sets the entry only if its potential beats the stored one.
	UpdateBest(ctx context.Context, e types.Entry) bool
	Remove(ctx context.Context, name string) bool
	Reset(ctx context.Context, entries []types.Entry)

	// Rank returns the entry of a player or ErrNotFound.
	Rank(ctx context.Context, name string) (types.Entry, error)
	// TopN returns up to n entries ordered by potential desc, optionally
	// restricted to one position.
	TopN(ctx context.Context, n int, position model.Position) ([]types.Entry, error)
	Count(ctx context.Context) int
}

// EntryFor builds the leaderboard entry of a rated season.
func EntryFor(p model.RatedPlayer) types.Entry {
	return types.Entry{
		PlayerName: p.Name,
		Position:   string(p.Position),
		Club:       p.Club,
		Season:     p.Season,
		SeasonID:   p.ID,
		Potential:  p.Potential(),
	}
}
