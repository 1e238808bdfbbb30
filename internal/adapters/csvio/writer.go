package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/talentscope/internal/domain/model"
)

var exportHeader = []string{
	"id", "player_name", "club", "nation", "position", "age", "season",
	"matches", "starts", "minutes", "goals", "assists",
	"base_performance", "confidence", "weighted_performance",
	"development_score", "development_source", "predicted_potential",
	"current_rating", "next_season_rating", "peak_rating", "is_best_season",
}

// Write exports rated players as CSV. Unscored fields are left empty.
func Write(w io.Writer, players []model.RatedPlayer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range players {
		if err := cw.Write(exportRow(&players[i])); err != nil {
			return fmt.Errorf("write row %d: %w", players[i].ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func exportRow(p *model.RatedPlayer) []string {
	row := []string{
		strconv.FormatInt(p.ID, 10), p.Name, p.Club, p.Nation, string(p.Position),
		strconv.Itoa(p.Age), p.Season,
		strconv.Itoa(p.Matches), strconv.Itoa(p.Starts), num(p.Minutes), num(p.Goals), num(p.Assists),
	}
	if b := p.Rating; b != nil {
		row = append(row, num(b.BasePerformance), b.ConfidenceLabel, num(b.WeightedPerformance),
			num(b.DevelopmentScore), b.DevelopmentSource, num(b.PredictedPotential))
	} else {
		row = append(row, "", "", "", "", "", "")
	}
	if t := p.Trajectory; t != nil {
		row = append(row, num(t.Current), num(t.NextSeason), num(t.Peak))
	} else {
		row = append(row, "", "", "")
	}
	return append(row, strconv.FormatBool(p.IsBestSeason))
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
