// Package types contains common types used across the application.
package types

// Entry is one leaderboard line: a player ranked by the best predicted
// potential across their seasons.
type Entry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"player_name"`
	Position   string  `json:"position"`
	Club       string  `json:"club"`
	Season     string  `json:"season"`
	SeasonID   int64   `json:"season_id"`
	Potential  float64 `json:"potential"`
}
