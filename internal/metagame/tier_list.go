package metagame

import (
	"sort"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// LeaderStats is a leader with statistics aggregated over all of its decks.
type LeaderStats struct {
	models.Leader
	WinRate       float64 `json:"win_rate"`
	GamesPlayed   int     `json:"games_played"`
	FirstWinRate  float64 `json:"first_win_rate"`
	SecondWinRate float64 `json:"second_win_rate"`
	Tier          Tier    `json:"tier"`
	DeckCount     int     `json:"deck_count"`
}

type deckAggregate struct {
	winRate, firstWinRate, secondWinRate float64
	games, count                         int
}

// BuildTierList aggregates deck statistics per leader and ranks the leaders.
// Win rates are plain means over the leader's decks. Decks whose leader is not in
// leaders are ignored. Leaders without decks rank with a 0% win rate in tier D.
// Ordering is win rate descending, then games played descending, then leader ID.
func BuildTierList(leaders []*models.Leader, decks []*models.Deck) []*LeaderStats {
	aggregates := make(map[string]*deckAggregate, len(leaders))
	for _, leader := range leaders {
		if leader == nil {
			continue
		}
		aggregates[leader.ID] = &deckAggregate{}
	}

	for _, deck := range decks {
		if deck == nil {
			continue
		}
		agg, ok := aggregates[deck.LeaderID]
		if !ok {
			continue
		}
		agg.winRate += deck.WinRate
		agg.firstWinRate += deck.FirstWinRate
		agg.secondWinRate += deck.SecondWinRate
		agg.games += deck.GamesPlayed
		agg.count++
	}

	result := make([]*LeaderStats, 0, len(aggregates))
	for _, leader := range leaders {
		if leader == nil {
			continue
		}
		agg := aggregates[leader.ID]

		stats := &LeaderStats{
			Leader:      *leader,
			GamesPlayed: agg.games,
			DeckCount:   agg.count,
		}
		var mean float64
		if agg.count > 0 {
			n := float64(agg.count)
			mean = agg.winRate / n
			stats.WinRate = round2(mean)
			stats.FirstWinRate = round2(agg.firstWinRate / n)
			stats.SecondWinRate = round2(agg.secondWinRate / n)
		}
		// Tier uses the unrounded mean.
		stats.Tier = TierFor(mean)

		result = append(result, stats)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].WinRate != result[j].WinRate {
			return result[i].WinRate > result[j].WinRate
		}
		if result[i].GamesPlayed != result[j].GamesPlayed {
			return result[i].GamesPlayed > result[j].GamesPlayed
		}
		return result[i].ID < result[j].ID
	})

	return result
}
