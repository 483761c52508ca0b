package metagame

import (
	"math"
	"testing"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		winRate float64
		want    Tier
	}{
		{100, TierS},
		{55, TierS},
		{54.99, TierA},
		{52, TierA},
		{51.99, TierB},
		{49, TierB},
		{48.99, TierC},
		{46, TierC},
		{45.99, TierD},
		{0, TierD},
		{-5, TierD},
		{math.NaN(), TierD},
	}

	for _, tt := range tests {
		if got := TierFor(tt.winRate); got != tt.want {
			t.Errorf("TierFor(%v) = %s, want %s", tt.winRate, got, tt.want)
		}
	}
}

func TestTierForMonotonic(t *testing.T) {
	prev := TierFor(100)
	for w := 100.0; w >= 0; w -= 0.25 {
		got := TierFor(w)
		if got.Rank() < prev.Rank() {
			t.Fatalf("tier improved from %s to %s as win rate fell to %v", prev, got, w)
		}
		prev = got
	}
}

func TestMetaShareTier(t *testing.T) {
	tests := []struct {
		share float64
		want  Tier
	}{
		{42, TierS},
		{30, TierS},
		{29.9, TierA},
		{15, TierA},
		{5, TierB},
		{1, TierC},
		{0.99, TierD},
	}

	for _, tt := range tests {
		if got := MetaShareTier(tt.share); got != tt.want {
			t.Errorf("MetaShareTier(%v) = %s, want %s", tt.share, got, tt.want)
		}
	}
}

func TestBuildTierList(t *testing.T) {
	leaders := []*models.Leader{
		{ID: "OP01-001", Name: "Zoro", Color: "Red"},
		{ID: "OP01-060", Name: "Doflamingo", Color: "Purple"},
		{ID: "OP02-001", Name: "Whitebeard", Color: "Red"},
		{ID: "ST01-001", Name: "Luffy", Color: "Red"},
	}
	decks := []*models.Deck{
		{LeaderID: "OP01-001", WinRate: 56, GamesPlayed: 100, FirstWinRate: 58, SecondWinRate: 54},
		{LeaderID: "OP01-001", WinRate: 54, GamesPlayed: 50, FirstWinRate: 56, SecondWinRate: 52},
		{LeaderID: "OP01-060", WinRate: 50, GamesPlayed: 80},
		{LeaderID: "OP02-001", WinRate: 50, GamesPlayed: 200},
		{LeaderID: "UNKNOWN", WinRate: 99, GamesPlayed: 1000},
	}

	list := BuildTierList(leaders, decks)
	if len(list) != 4 {
		t.Fatalf("expected 4 leaders, got %d", len(list))
	}

	wantOrder := []string{"OP01-001", "OP02-001", "OP01-060", "ST01-001"}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}

	zoro := list[0]
	if zoro.WinRate != 55 {
		t.Errorf("expected win rate 55, got %v", zoro.WinRate)
	}
	if zoro.GamesPlayed != 150 {
		t.Errorf("expected 150 games, got %d", zoro.GamesPlayed)
	}
	if zoro.FirstWinRate != 57 || zoro.SecondWinRate != 53 {
		t.Errorf("unexpected turn order rates %v/%v", zoro.FirstWinRate, zoro.SecondWinRate)
	}
	if zoro.DeckCount != 2 {
		t.Errorf("expected 2 decks, got %d", zoro.DeckCount)
	}
	if zoro.Tier != TierS {
		t.Errorf("expected tier S, got %s", zoro.Tier)
	}

	luffy := list[3]
	if luffy.DeckCount != 0 || luffy.WinRate != 0 || luffy.Tier != TierD {
		t.Errorf("leader without decks: got %+v", luffy)
	}
}

func TestBuildTierListRounding(t *testing.T) {
	leaders := []*models.Leader{{ID: "L1", Name: "Nami"}}
	decks := []*models.Deck{
		{LeaderID: "L1", WinRate: 51.995},
		{LeaderID: "L1", WinRate: 51.995},
		{LeaderID: "L1", WinRate: 51.996},
	}

	list := BuildTierList(leaders, decks)
	if len(list) != 1 {
		t.Fatalf("expected 1 leader, got %d", len(list))
	}
	if list[0].WinRate != 52 {
		t.Errorf("expected rounded win rate 52, got %v", list[0].WinRate)
	}
	if list[0].Tier != TierB {
		t.Errorf("expected tier B from the unrounded mean, got %s", list[0].Tier)
	}
}

func TestBuildTierListEmpty(t *testing.T) {
	list := BuildTierList(nil, nil)
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %v", list)
	}
}
