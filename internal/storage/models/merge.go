package models

// Merge functions implement the upsert contract used by importers: the existing
// record keeps its identity and creation time, incoming statistics always replace
// the stored ones, and optional fields are only replaced when the incoming record
// carries a value. A nil existing record means "insert", so the incoming record is
// returned as a copy.

// MergeLeader merges an incoming leader into an existing one.
func MergeLeader(existing, incoming *Leader) *Leader {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		out := *incoming
		return &out
	}

	out := *existing
	if incoming.Name != "" {
		out.Name = incoming.Name
	}
	if incoming.Color != "" {
		out.Color = incoming.Color
	}
	out.ImageURL = pickString(existing.ImageURL, incoming.ImageURL)
	if !incoming.UpdatedAt.IsZero() {
		out.UpdatedAt = incoming.UpdatedAt
	}
	return &out
}

// MergeCard merges an incoming catalog record into an existing one.
func MergeCard(existing, incoming *Card) *Card {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		out := *incoming
		return &out
	}

	out := *existing
	if incoming.Name != "" {
		out.Name = incoming.Name
	}
	out.SetCode = pickString(existing.SetCode, incoming.SetCode)
	out.Rarity = pickString(existing.Rarity, incoming.Rarity)
	out.CardType = pickString(existing.CardType, incoming.CardType)
	out.Color = pickString(existing.Color, incoming.Color)
	out.Cost = pickString(existing.Cost, incoming.Cost)
	out.Power = pickString(existing.Power, incoming.Power)
	out.ImageURL = pickString(existing.ImageURL, incoming.ImageURL)
	if !incoming.UpdatedAt.IsZero() {
		out.UpdatedAt = incoming.UpdatedAt
	}
	return &out
}

// MergeDeck merges an incoming deck record into an existing one.
// The natural key (leader, source URL) is taken from the existing record.
func MergeDeck(existing, incoming *Deck) *Deck {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		out := *incoming
		return &out
	}

	out := *existing
	out.WinRate = incoming.WinRate
	out.GamesPlayed = incoming.GamesPlayed
	out.FirstWinRate = incoming.FirstWinRate
	out.SecondWinRate = incoming.SecondWinRate
	out.DeckListJSON = pickString(existing.DeckListJSON, incoming.DeckListJSON)
	out.Tier = pickString(existing.Tier, incoming.Tier)
	if !incoming.UpdatedAt.IsZero() {
		out.UpdatedAt = incoming.UpdatedAt
	}
	return &out
}

// ReverseMatchup returns the same head-to-head seen from leader B: the win
// rate is complemented and the turn-order rates are swapped and complemented,
// since B going first is A going second.
func ReverseMatchup(m *Matchup) *Matchup {
	if m == nil {
		return nil
	}
	out := *m
	out.LeaderAID, out.LeaderBID = m.LeaderBID, m.LeaderAID
	out.WinRateA = 100 - m.WinRateA
	out.FirstWinRate = complementRate(m.SecondWinRate)
	out.SecondWinRate = complementRate(m.FirstWinRate)
	return &out
}

func complementRate(rate *float64) *float64 {
	if rate == nil {
		return nil
	}
	return Float(100 - *rate)
}

// MergeMatchup merges an incoming matchup into an existing record for the same
// ordered pair.
func MergeMatchup(existing, incoming *Matchup) *Matchup {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		out := *incoming
		return &out
	}

	out := *existing
	out.WinRateA = incoming.WinRateA
	out.SampleSize = incoming.SampleSize
	out.FirstWinRate = pickFloat(existing.FirstWinRate, incoming.FirstWinRate)
	out.SecondWinRate = pickFloat(existing.SecondWinRate, incoming.SecondWinRate)
	if !incoming.UpdatedAt.IsZero() {
		out.UpdatedAt = incoming.UpdatedAt
	}
	return &out
}

func pickString(existing, incoming *string) *string {
	if incoming != nil {
		return incoming
	}
	return existing
}

func pickFloat(existing, incoming *float64) *float64 {
	if incoming != nil {
		return incoming
	}
	return existing
}
