package repository

import "fmt"

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const columnsSQL = `
    player_name           TEXT NOT NULL,
    club                  TEXT NOT NULL DEFAULT '',
    nation                TEXT NOT NULL DEFAULT '',
    position              TEXT NOT NULL,
    age                   INTEGER NOT NULL,
    season                TEXT NOT NULL DEFAULT '',
    season_order          INTEGER NOT NULL DEFAULT 0,
    matches               INTEGER NOT NULL DEFAULT 0,
    starts                INTEGER NOT NULL DEFAULT 0,
    minutes               %[1]s NOT NULL DEFAULT 0,
    goals                 %[1]s NOT NULL DEFAULT 0,
    assists               %[1]s NOT NULL DEFAULT 0,
    penalty_goals         %[1]s NOT NULL DEFAULT 0,
    xg_per_90             %[1]s,
    xa_per_90             %[1]s,
    saves                 %[1]s NOT NULL DEFAULT 0,
    goals_against         %[1]s NOT NULL DEFAULT 0,
    clean_sheets          %[1]s NOT NULL DEFAULT 0,
    save_pct              %[1]s,
    clean_sheet_pct       %[1]s,
    goals_against_per_90  %[1]s,
    complete_matches      %[1]s NOT NULL DEFAULT 0,
    minutes_pct           %[1]s NOT NULL DEFAULT 0,
    points_per_match      %[1]s NOT NULL DEFAULT 0,
    plus_minus_per_90     %[1]s NOT NULL DEFAULT 0,
    on_off                %[1]s NOT NULL DEFAULT 0,
    base_performance      %[1]s,
    baseline_prior        %[1]s,
    confidence_weight     %[1]s,
    confidence_label      TEXT,
    weighted_performance  %[1]s,
    development_score     %[1]s,
    development_source    TEXT,
    sample_penalty        %[1]s,
    elite_bonus           %[1]s,
    predicted_potential   %[1]s,
    scored_at_ms          BIGINT,
    current_rating        %[1]s,
    next_season_rating    %[1]s,
    peak_rating           %[1]s,
    is_best_season        BOOLEAN NOT NULL DEFAULT FALSE`

const indexesSQL = `
CREATE INDEX IF NOT EXISTS idx_seasons_player ON seasons(player_name);
CREATE INDEX IF NOT EXISTS idx_seasons_position ON seasons(position);
CREATE INDEX IF NOT EXISTS idx_seasons_potential ON seasons(predicted_potential);
CREATE INDEX IF NOT EXISTS idx_seasons_best ON seasons(is_best_season);
`

func schemaFor(driver string) (string, error) {
	var id, real, watch string
	switch driver {
	case DriverSQLite:
		id, real = "INTEGER PRIMARY KEY AUTOINCREMENT", "REAL"
		watch = "INTEGER PRIMARY KEY"
	case DriverPostgres:
		id, real = "BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION"
		watch = "BIGINT PRIMARY KEY"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS seasons (\n    id %s,%s\n);\n", id, fmt.Sprintf(columnsSQL, real)) +
		indexesSQL +
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS watchlist (
    season_id  %s REFERENCES seasons(id) ON DELETE CASCADE,
    added_at_ms BIGINT NOT NULL
);
`, watch), nil
}
