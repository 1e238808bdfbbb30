// Package csvio reads season statistics from spreadsheet exports and
// writes rated players back out.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/talentscope/internal/domain/derive"
	"github.com/okian/talentscope/pkg/metrics"
)

type column int

const (
	colPlayer column = iota
	colClub
	colNation
	colPosition
	colSeason
	colAge
	colMatches
	colStarts
	colMinutes
	colGoals
	colAssists
	colPenalties
	colXG
	colXA
	colSaves
	colGoalsAgainst
	colCleanSheets
	colSavePct
	colCleanSheetPct
	colGA90
	colComplete
	colMinutesPct
	colPPM
	colPlusMinus
	colOnOff
)

// headerNames lists the lower-cased header spellings seen in the source
// sheets for each column.
var headerNames = map[column][]string{
	colPlayer:        {"player", "name", "player_name"},
	colClub:          {"squad", "club", "team"},
	colNation:        {"nation", "nationality"},
	colPosition:      {"pos", "position"},
	colSeason:        {"season"},
	colAge:           {"age"},
	colMatches:       {"mp", "matches", "matches_played"},
	colStarts:        {"starts", "gs"},
	colMinutes:       {"min", "minutes"},
	colGoals:         {"gls", "goals"},
	colAssists:       {"ast", "assists"},
	colPenalties:     {"pk", "penalty_goals"},
	colXG:            {"xg/90", "xg_per_90", "xg90"},
	colXA:            {"xa/90", "xag/90", "xa_per_90", "xa90"},
	colSaves:         {"saves"},
	colGoalsAgainst:  {"ga", "goals_against"},
	colCleanSheets:   {"cs", "clean_sheets"},
	colSavePct:       {"save%", "save_pct"},
	colCleanSheetPct: {"cs%", "clean_sheet_pct"},
	colGA90:          {"ga90", "goals_against_per_90"},
	colComplete:      {"compl", "complete_matches"},
	colMinutesPct:    {"min%", "minutes_pct"},
	colPPM:           {"ppm", "points_per_match"},
	colPlusMinus:     {"+/-90", "plus_minus_per_90"},
	colOnOff:         {"on-off", "on_off"},
}

var aliases = func() map[string]column {
	m := make(map[string]column)
	for c, names := range headerNames {
		for _, n := range names {
			m[n] = c
		}
	}
	return m
}()

// Result summarises an import.
type Result struct {
	Seasons []derive.RawSeason
	Skipped int // rows without a player name or with malformed numbers
	Errors  []error
}

// Options control how rows are read.
type Options struct {
	// Season labels every row when the file has no season column.
	Season string
	// SeasonOrder is assigned to every row.
	SeasonOrder int
}

// Read parses a CSV export. Unknown columns are ignored and a row that
// cannot be parsed is skipped and reported, not fatal.
func Read(r io.Reader, opts Options) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, ErrMissingHeader
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}

	index := map[column]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if c, ok := aliases[key]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	if _, ok := index[colPlayer]; !ok {
		return Result{}, ErrNoPlayer
	}

	var res Result
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		raw, err := parseRow(rec, index, opts)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		res.Seasons = append(res.Seasons, raw)
	}
	metrics.RecordImport(len(res.Seasons), res.Skipped)
	return res, nil
}

var errNoName = errors.New("empty player name")

func parseRow(rec []string, index map[column]int, opts Options) (derive.RawSeason, error) {
	cell := func(c column) string {
		i, ok := index[c]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	// Repeated header lines in pasted tables.
	name := cell(colPlayer)
	if name == "" || strings.EqualFold(name, "player") {
		return derive.RawSeason{}, errNoName
	}

	raw := derive.RawSeason{
		Name:        name,
		Club:        cell(colClub),
		Nation:      nation(cell(colNation)),
		Position:    cell(colPosition),
		Season:      cell(colSeason),
		SeasonOrder: opts.SeasonOrder,
	}
	if raw.Season == "" {
		raw.Season = opts.Season
	}

	numbers := []struct {
		col column
		dst **float64
	}{
		{colAge, &raw.Age},
		{colMatches, &raw.Matches},
		{colStarts, &raw.Starts},
		{colMinutes, &raw.Minutes},
		{colGoals, &raw.Goals},
		{colAssists, &raw.Assists},
		{colPenalties, &raw.PenaltyGoals},
		{colXG, &raw.XGPer90},
		{colXA, &raw.XAPer90},
		{colSaves, &raw.Saves},
		{colGoalsAgainst, &raw.GoalsAgainst},
		{colCleanSheets, &raw.CleanSheets},
		{colSavePct, &raw.SavePct},
		{colCleanSheetPct, &raw.CleanSheetPct},
		{colGA90, &raw.GoalsAgainstPer90},
		{colComplete, &raw.CompleteMatches},
		{colMinutesPct, &raw.MinutesPct},
		{colPPM, &raw.PointsPerMatch},
		{colPlusMinus, &raw.PlusMinusPer90},
		{colOnOff, &raw.OnOff},
	}
	for _, n := range numbers {
		v, err := number(cell(n.col), n.col == colAge)
		if err != nil {
			return derive.RawSeason{}, err
		}
		*n.dst = v
	}
	return raw, nil
}

// number parses a numeric cell. Empty cells and dashes are absent values.
// Thousands separators and percent signs are dropped; ages written as
// "17-123" (years-days) keep the years.
func number(s string, age bool) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "\u2014" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	if age {
		if i := strings.IndexByte(s, '-'); i > 0 {
			s = s[:i]
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	return &v, nil
}

// nation keeps the country code of values like "de GER".
func nation(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
