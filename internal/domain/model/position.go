// Package model contains domain models passed between layers.
package model

import "strings"

// Position is the coarse tactical group a player is benchmarked against.
type Position string

const (
	Forward    Position = "FW"
	Midfielder Position = "MF"
	Defender   Position = "DF"
	Goalkeeper Position = "GK"
)

// Positions lists every position in display order.
var Positions = []Position{Forward, Midfielder, Defender, Goalkeeper}

var positionCodes = map[string]Position{
	"FW": Forward, "ST": Forward, "CF": Forward, "LW": Forward, "RW": Forward,
	"MF": Midfielder, "CM": Midfielder, "DM": Midfielder, "AM": Midfielder,
	"CAM": Midfielder, "CDM": Midfielder, "LM": Midfielder, "RM": Midfielder,
	"DF": Defender, "CB": Defender, "LB": Defender, "RB": Defender,
	"LWB": Defender, "RWB": Defender,
	"GK": Goalkeeper,
}

// ParsePosition maps a raw position string to a Position. Composite values
// such as "FW,MF" use the first listed role. Unknown input is a midfielder.
func ParsePosition(raw string) Position {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.IndexAny(s, ",/"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	if p, ok := positionCodes[s]; ok {
		return p
	}
	switch {
	case strings.Contains(s, "GOAL"), strings.Contains(s, "KEEP"):
		return Goalkeeper
	case strings.Contains(s, "FORWARD"), strings.Contains(s, "STRIKER"), strings.Contains(s, "WING"):
		return Forward
	case strings.Contains(s, "BACK"), strings.Contains(s, "DEFEND"):
		return Defender
	default:
		return Midfielder
	}
}

// Valid reports whether p is one of the four known positions.
func (p Position) Valid() bool {
	switch p {
	case Forward, Midfielder, Defender, Goalkeeper:
		return true
	}
	return false
}

func (p Position) String() string { return string(p) }
