// Package metagame derives read views from persisted metagame data: the leader
// tier list, the complete matchup matrix, deck valuations and price movers.
//
// Every function in this package is a pure transformation of the entity
// snapshots it is given. Data problems (missing references, malformed deck
// lists, absent prices) degrade the result instead of returning an error.
package metagame

import "math"

// Tier is a coarse competitive ranking bucket, S best and D worst.
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Win-rate tier thresholds (inclusive lower bounds, percent).
const (
	tierSWinRate = 55.0
	tierAWinRate = 52.0
	tierBWinRate = 49.0
	tierCWinRate = 46.0
)

// TierFor maps a win rate (0-100) to a tier.
// Thresholds:
//   - S: >= 55%
//   - A: >= 52%
//   - B: >= 49%
//   - C: >= 46%
//   - D: everything else, including NaN
func TierFor(winRate float64) Tier {
	switch {
	case winRate >= tierSWinRate:
		return TierS
	case winRate >= tierAWinRate:
		return TierA
	case winRate >= tierBWinRate:
		return TierB
	case winRate >= tierCWinRate:
		return TierC
	default:
		return TierD
	}
}

// MetaShareTier maps a meta share percentage to a tier. It is used for tournament
// aggregate decks that carry popularity but no win rate.
func MetaShareTier(share float64) Tier {
	switch {
	case share >= 30:
		return TierS
	case share >= 15:
		return TierA
	case share >= 5:
		return TierB
	case share >= 1:
		return TierC
	default:
		return TierD
	}
}

// Rank returns the tier's position, 0 for S through 4 for D.
func (t Tier) Rank() int {
	switch t {
	case TierS:
		return 0
	case TierA:
		return 1
	case TierB:
		return 2
	case TierC:
		return 3
	default:
		return 4
	}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
