package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"    // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/pkg/logger"
	"github.com/okian/talentscope/pkg/metrics"
)

// Elite threshold used by Stats.
const elitePotential = 70

const seasonFields = `player_name, club, nation, position, age, season, season_order,
    matches, starts, minutes, goals, assists, penalty_goals, xg_per_90, xa_per_90,
    saves, goals_against, clean_sheets, save_pct, clean_sheet_pct, goals_against_per_90,
    complete_matches, minutes_pct, points_per_match, plus_minus_per_90, on_off`

const ratingFields = `base_performance, baseline_prior, confidence_weight, confidence_label,
    weighted_performance, development_score, development_source, sample_penalty,
    elite_bonus, predicted_potential, scored_at_ms,
    current_rating, next_season_rating, peak_rating, is_best_season`

const selectSeasons = "SELECT id, " + seasonFields + ", " + ratingFields + " FROM seasons"

// seasonRow is the flat database shape of a rated season.
type seasonRow struct {
	model.PlayerSeason

	BasePerformance     *float64 `db:"base_performance"`
	BaselinePrior       *float64 `db:"baseline_prior"`
	ConfidenceWeight    *float64 `db:"confidence_weight"`
	ConfidenceLabel     *string  `db:"confidence_label"`
	WeightedPerformance *float64 `db:"weighted_performance"`
	DevelopmentScore    *float64 `db:"development_score"`
	DevelopmentSource   *string  `db:"development_source"`
	SamplePenalty       *float64 `db:"sample_penalty"`
	EliteBonus          *float64 `db:"elite_bonus"`
	PredictedPotential  *float64 `db:"predicted_potential"`
	ScoredAtMs          *int64   `db:"scored_at_ms"`

	CurrentRating    *float64 `db:"current_rating"`
	NextSeasonRating *float64 `db:"next_season_rating"`
	PeakRating       *float64 `db:"peak_rating"`
	IsBestSeason     bool     `db:"is_best_season"`
}

func (r *seasonRow) rated() model.RatedPlayer {
	out := model.RatedPlayer{PlayerSeason: r.PlayerSeason, IsBestSeason: r.IsBestSeason}
	if r.PredictedPotential != nil {
		b := &model.RatingBundle{
			BasePerformance:     deref(r.BasePerformance),
			BaselinePrior:       deref(r.BaselinePrior),
			ConfidenceWeight:    deref(r.ConfidenceWeight),
			WeightedPerformance: deref(r.WeightedPerformance),
			DevelopmentScore:    deref(r.DevelopmentScore),
			SamplePenalty:       deref(r.SamplePenalty),
			EliteBonus:          deref(r.EliteBonus),
			PredictedPotential:  *r.PredictedPotential,
		}
		if r.ConfidenceLabel != nil {
			b.ConfidenceLabel = *r.ConfidenceLabel
		}
		if r.DevelopmentSource != nil {
			b.DevelopmentSource = *r.DevelopmentSource
		}
		if r.ScoredAtMs != nil {
			b.ScoredAt = time.UnixMilli(*r.ScoredAtMs).UTC()
		}
		out.Rating = b
	}
	if r.CurrentRating != nil && r.NextSeasonRating != nil && r.PeakRating != nil {
		out.Trajectory = &model.Trajectory{
			Current:    *r.CurrentRating,
			NextSeason: *r.NextSeasonRating,
			Peak:       *r.PeakRating,
		}
	}
	return out
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// SQLStore implements Seasons over sqlx. SQLite is the default backend and
// Postgres is supported through the same queries.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	logger logger.Logger
}

var _ Seasons = (*SQLStore)(nil)

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	schema, err := schemaFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s %s: %w", driver, dsn, err)
	}
	if driver == DriverSQLite {
		// sqlite serialises writers; an in-memory database also lives and
		// dies with its connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLStore{db: db, driver: driver, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("repository")
	return s, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

// Driver returns the driver name.
func (s *SQLStore) Driver() string { return s.driver }

func (s *SQLStore) observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
}

func (s *SQLStore) observeUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
}

// Replace drops all stored seasons and inserts the given ones atomically.
func (s *SQLStore) Replace(ctx context.Context, seasons []model.PlayerSeason) ([]int64, error) {
	return s.insert(ctx, seasons, true)
}

// Insert appends seasons and returns their assigned IDs in order.
func (s *SQLStore) Insert(ctx context.Context, seasons []model.PlayerSeason) ([]int64, error) {
	return s.insert(ctx, seasons, false)
}

func (s *SQLStore) insert(ctx context.Context, seasons []model.PlayerSeason, reset bool) ([]int64, error) {
	defer s.observeUpdate(time.Now())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if reset {
		if err := resetTx(ctx, tx); err != nil {
			return nil, err
		}
	}

	stmt, err := tx.PrepareNamedContext(ctx,
		"INSERT INTO seasons ("+seasonFields+") VALUES ("+prefixed(":", seasonFields)+") RETURNING id")
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(seasons))
	for i := range seasons {
		if err := stmt.QueryRowxContext(ctx, &seasons[i]).Scan(&ids[i]); err != nil {
			return nil, fmt.Errorf("insert season %q %s: %w", seasons[i].Name, seasons[i].Season, err)
		}
		seasons[i].ID = ids[i]
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	s.refreshCount(ctx)
	return ids, nil
}

// Reset deletes every season and watchlist entry.
func (s *SQLStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit
	if err := resetTx(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	metrics.UpdateRepositoryRows(0)
	return nil
}

func resetTx(ctx context.Context, tx *sqlx.Tx) error {
	for _, q := range []string{"DELETE FROM watchlist", "DELETE FROM seasons"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) refreshCount(ctx context.Context) {
	n, err := s.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "count seasons", logger.Error(err))
		return
	}
	metrics.UpdateRepositoryRows(n)
}

// Get returns one season by ID.
func (s *SQLStore) Get(ctx context.Context, id int64) (model.RatedPlayer, error) {
	defer s.observeQuery(time.Now())

	var row seasonRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(selectSeasons+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RatedPlayer{}, ErrNotFound
	}
	if err != nil {
		return model.RatedPlayer{}, fmt.Errorf("get season %d: %w", id, err)
	}
	return row.rated(), nil
}

// List returns seasons matching opts ordered by potential desc with
// unscored seasons last.
func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]model.RatedPlayer, error) {
	defer s.observeQuery(time.Now())

	query := selectSeasons + " WHERE 1=1"
	var args []any
	if opts.Position != "" {
		query += " AND position = ?"
		args = append(args, string(opts.Position))
	}
	if opts.Season != "" {
		query += " AND season = ?"
		args = append(args, opts.Season)
	}
	if opts.Club != "" {
		query += " AND club = ?"
		args = append(args, opts.Club)
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query += " AND (LOWER(player_name) LIKE ? OR LOWER(club) LIKE ?)"
		args = append(args, like, like)
	}
	if opts.BestOnly {
		query += " AND is_best_season = ?"
		args = append(args, true)
	}
	query += " ORDER BY predicted_potential IS NULL, predicted_potential DESC, player_name, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}
	return s.selectRows(ctx, query, args...)
}

func (s *SQLStore) selectRows(ctx context.Context, query string, args ...any) ([]model.RatedPlayer, error) {
	var rows []seasonRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select seasons: %w", err)
	}
	out := make([]model.RatedPlayer, len(rows))
	for i := range rows {
		out[i] = rows[i].rated()
	}
	return out, nil
}

// Progression returns every season of a player in play order.
func (s *SQLStore) Progression(ctx context.Context, name string) ([]model.RatedPlayer, error) {
	defer s.observeQuery(time.Now())

	out, err := s.selectRows(ctx, selectSeasons+" WHERE player_name = ?", name)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	sort.SliceStable(out, func(i, j int) bool {
		return model.SeasonBefore(out[i].PlayerSeason, out[j].PlayerSeason)
	})
	return out, nil
}

// BestSeason returns the scored season with the highest potential of a
// player; ties go to the earliest stored row.
func (s *SQLStore) BestSeason(ctx context.Context, name string) (model.RatedPlayer, error) {
	defer s.observeQuery(time.Now())

	out, err := s.selectRows(ctx, selectSeasons+
		" WHERE player_name = ? AND predicted_potential IS NOT NULL ORDER BY predicted_potential DESC, id LIMIT 1", name)
	if err != nil {
		return model.RatedPlayer{}, err
	}
	if len(out) == 0 {
		return model.RatedPlayer{}, ErrNotFound
	}
	return out[0], nil
}

// Count returns the number of stored seasons.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM seasons"); err != nil {
		return 0, fmt.Errorf("count seasons: %w", err)
	}
	return n, nil
}

// SaveRatings writes whole rating bundles back in a single transaction.
func (s *SQLStore) SaveRatings(ctx context.Context, updates []RatingUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	defer s.observeUpdate(time.Now())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save ratings: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`UPDATE seasons SET
        base_performance = ?, baseline_prior = ?, confidence_weight = ?, confidence_label = ?,
        weighted_performance = ?, development_score = ?, development_source = ?,
        sample_penalty = ?, elite_bonus = ?, predicted_potential = ?, scored_at_ms = ?
        WHERE id = ?`))
	if err != nil {
		return fmt.Errorf("prepare save ratings: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		b := u.Rating
		res, err := stmt.ExecContext(ctx,
			b.BasePerformance, b.BaselinePrior, b.ConfidenceWeight, b.ConfidenceLabel,
			b.WeightedPerformance, b.DevelopmentScore, b.DevelopmentSource,
			b.SamplePenalty, b.EliteBonus, b.PredictedPotential, b.ScoredAt.UnixMilli(),
			u.ID)
		if err != nil {
			return fmt.Errorf("save rating %d: %w", u.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("save rating %d: %w", u.ID, ErrNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save ratings: %w", err)
	}
	return nil
}

// SaveTrajectories writes current, next-season and peak ratings back.
func (s *SQLStore) SaveTrajectories(ctx context.Context, rows []model.ProgressionRow) error {
	if len(rows) == 0 {
		return nil
	}
	defer s.observeUpdate(time.Now())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save trajectories: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(
		"UPDATE seasons SET current_rating = ?, next_season_rating = ?, peak_rating = ? WHERE id = ?"))
	if err != nil {
		return fmt.Errorf("prepare save trajectories: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx, r.Current, r.NextSeason, r.Peak, r.ID); err != nil {
			return fmt.Errorf("save trajectory %d: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save trajectories: %w", err)
	}
	return nil
}

// RefreshBestSeasons recomputes the best-season flag for the named players,
// or for everyone when no name is given. Exactly one scored season per
// player carries the flag.
func (s *SQLStore) RefreshBestSeasons(ctx context.Context, names ...string) error {
	defer s.observeUpdate(time.Now())

	const best = `UPDATE seasons SET is_best_season = ? WHERE id IN (
        SELECT s.id FROM seasons s
        WHERE s.predicted_potential IS NOT NULL %s
        AND s.id = (
            SELECT t.id FROM seasons t
            WHERE t.player_name = s.player_name AND t.predicted_potential IS NOT NULL
            ORDER BY t.predicted_potential DESC, t.id LIMIT 1))`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refresh best: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if len(names) == 0 {
		if _, err := tx.ExecContext(ctx, tx.Rebind("UPDATE seasons SET is_best_season = ?"), false); err != nil {
			return fmt.Errorf("clear best flags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(fmt.Sprintf(best, "")), true); err != nil {
			return fmt.Errorf("set best flags: %w", err)
		}
	} else {
		for _, name := range names {
			if _, err := tx.ExecContext(ctx, tx.Rebind("UPDATE seasons SET is_best_season = ? WHERE player_name = ?"), false, name); err != nil {
				return fmt.Errorf("clear best flag %q: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(fmt.Sprintf(best, "AND s.player_name = ?")), true, name); err != nil {
				return fmt.Errorf("set best flag %q: %w", name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refresh best: %w", err)
	}
	return nil
}

// Stats aggregates the population over each player's best season.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	defer s.observeQuery(time.Now())

	st := Stats{
		ByPosition:             map[string]int{},
		AvgPotentialByPosition: map[string]float64{},
		Seasons:                []string{},
		Clubs:                  []string{},
	}
	if err := s.db.GetContext(ctx, &st.TotalPlayers, "SELECT COUNT(DISTINCT player_name) FROM seasons"); err != nil {
		return Stats{}, fmt.Errorf("count players: %w", err)
	}
	if err := s.db.GetContext(ctx, &st.TotalRecords, "SELECT COUNT(*) FROM seasons"); err != nil {
		return Stats{}, fmt.Errorf("count records: %w", err)
	}
	if err := s.db.GetContext(ctx, &st.ScoredRecords, "SELECT COUNT(*) FROM seasons WHERE predicted_potential IS NOT NULL"); err != nil {
		return Stats{}, fmt.Errorf("count scored: %w", err)
	}
	if err := s.db.SelectContext(ctx, &st.Seasons, "SELECT DISTINCT season FROM seasons WHERE season <> '' ORDER BY season DESC"); err != nil {
		return Stats{}, fmt.Errorf("list seasons: %w", err)
	}
	if err := s.db.SelectContext(ctx, &st.Clubs, "SELECT DISTINCT club FROM seasons WHERE club <> '' ORDER BY club"); err != nil {
		return Stats{}, fmt.Errorf("list clubs: %w", err)
	}

	best, err := s.List(ctx, ListOpts{BestOnly: true})
	if err != nil {
		return Stats{}, err
	}
	sums := map[string]float64{}
	var total float64
	for _, p := range best {
		pos := string(p.Position)
		v := p.Potential()
		st.ByPosition[pos]++
		sums[pos] += v
		total += v
		st.MaxPotential = math.Max(st.MaxPotential, v)
		if v >= elitePotential {
			st.EliteCount++
		}
	}
	for pos, sum := range sums {
		st.AvgPotentialByPosition[pos] = round1(sum / float64(st.ByPosition[pos]))
	}
	if len(best) > 0 {
		st.AvgPotential = round1(total / float64(len(best)))
	}
	st.MaxPotential = round1(st.MaxPotential)
	return st, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// AddWatch watchlists a season. It reports false if it already was.
func (s *SQLStore) AddWatch(ctx context.Context, id int64) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"INSERT INTO watchlist (season_id, added_at_ms) VALUES (?, ?) ON CONFLICT (season_id) DO NOTHING"),
		id, time.Now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("add watch %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add watch %d: %w", id, err)
	}
	return n > 0, nil
}

// RemoveWatch drops a season from the watchlist. It reports false if it
// was not there.
func (s *SQLStore) RemoveWatch(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM watchlist WHERE season_id = ?"), id)
	if err != nil {
		return false, fmt.Errorf("remove watch %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove watch %d: %w", id, err)
	}
	return n > 0, nil
}

// Watchlist returns watchlisted seasons, most recently added first.
func (s *SQLStore) Watchlist(ctx context.Context) ([]WatchItem, error) {
	defer s.observeQuery(time.Now())

	type watchRow struct {
		seasonRow
		AddedAtMs int64 `db:"added_at_ms"`
	}
	var rows []watchRow
	query := "SELECT s.id, " + prefixed("s.", seasonFields) + ", " + prefixed("s.", ratingFields) +
		", w.added_at_ms FROM watchlist w JOIN seasons s ON s.id = w.season_id ORDER BY w.added_at_ms DESC, s.id"
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select watchlist: %w", err)
	}
	out := make([]WatchItem, len(rows))
	for i := range rows {
		out[i] = WatchItem{RatedPlayer: rows[i].rated(), AddedAt: time.UnixMilli(rows[i].AddedAtMs).UTC()}
	}
	return out, nil
}

func prefixed(prefix, fields string) string {
	parts := strings.Split(fields, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
