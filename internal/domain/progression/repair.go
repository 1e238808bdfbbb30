package progression

import (
	"math"

	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/model"
)

// Repaired field names, as reported by Repair.
const (
	FieldCurrent    = "current"
	FieldNextSeason = "next_season"
	FieldPeak       = "peak"
)

// Repair enforces current <= next <= peak with the configured gaps and
// caps. For rules accepted by Validate it is idempotent. It returns the
// fields it had to move.
func Repair(t model.Trajectory, r *benchmark.Progression) (model.Trajectory, []string) {
	var fixed []string
	out := t

	out.Current = clip(out.Current, r.CurrentMin, r.CurrentMax)
	if out.Current != t.Current {
		fixed = append(fixed, FieldCurrent)
	}

	next := out.NextSeason
	if math.IsNaN(next) {
		next = 0
	}
	next = math.Max(next, out.Current+r.MinNextGap)
	next = math.Min(next, r.NextCap)
	if next != t.NextSeason {
		fixed = append(fixed, FieldNextSeason)
	}
	out.NextSeason = next

	peak := out.Peak
	if math.IsNaN(peak) {
		peak = 0
	}
	peak = math.Max(peak, out.NextSeason+r.MinPeakGap)
	peak = math.Max(peak, out.Current+r.MinPeakOverCurrent)
	peak = math.Min(peak, r.PeakCap)
	if peak != t.Peak {
		fixed = append(fixed, FieldPeak)
	}
	out.Peak = peak

	return out, fixed
}
