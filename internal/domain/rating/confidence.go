package rating

import "github.com/okian/talentscope/internal/domain/benchmark"

// Confidence returns how far observed performance can be trusted given the
// sample size. A tier applies only when both its match and minute
// thresholds are met.
func Confidence(matches int, minutes float64, tbl *benchmark.Table) (float64, string) {
	for _, tier := range tbl.Confidence {
		if matches >= tier.MinMatches && minutes >= tier.MinMinutes {
			return tier.Weight, tier.Label
		}
	}
	return tbl.FallbackWeight, tbl.FallbackLabel
}
