package importer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

type countingRecorder map[string]int

func (c countingRecorder) AddImported(entity string, n int) { c[entity] += n }

func TestParse(t *testing.T) {
	seed, err := ParseFile(filepath.Join("testdata", "seed.yaml"))
	require.NoError(t, err)

	assert.Len(t, seed.Leaders, 2)
	assert.Len(t, seed.Cards, 2)
	require.Len(t, seed.Decks, 3)
	assert.Equal(t, map[string]int{"OP01-016": 4, "OP01-004": 2}, seed.Decks[0].DeckList)
	assert.Nil(t, seed.Decks[1].WinRate)
	require.NotNil(t, seed.Decks[1].MetaShare)
	assert.Equal(t, 12.0, *seed.Decks[1].MetaShare)
	require.Len(t, seed.Prices, 3)
	require.NotNil(t, seed.Prices[0].FetchedAt)
	assert.True(t, seed.Prices[0].FetchedAt.Equal(time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)))
	assert.Nil(t, seed.Prices[1].FetchedAt)
}

func TestParse_EmptyAndInvalid(t *testing.T) {
	seed, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, seed.Leaders)

	_, err = Parse(strings.NewReader("leaders:\n  - id: A\n    nickname: Zoro\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Parse(strings.NewReader("decks: [\n"))
	assert.Error(t, err)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	store := storage.NewTestService(t)
	rec := countingRecorder{}
	im := New(store, nil, rec)
	im.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	seed, err := ParseFile(filepath.Join("testdata", "seed.yaml"))
	require.NoError(t, err)

	res, err := im.Import(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, &Result{Leaders: 2, Cards: 2, Decks: 2, Matchups: 1, Prices: 2, Skipped: 3}, res)
	assert.Equal(t, 2, rec["decks"])

	decks, err := store.DecksByLeader(ctx, "OP01-001")
	require.NoError(t, err)
	require.Len(t, decks, 1)
	require.NotNil(t, decks[0].Tier)
	assert.Equal(t, "S", *decks[0].Tier)
	assert.JSONEq(t, `{"OP01-016": 4, "OP01-004": 2}`, *decks[0].DeckListJSON)

	metaOnly, err := store.DecksByLeader(ctx, "OP01-060")
	require.NoError(t, err)
	require.Len(t, metaOnly, 1)
	require.NotNil(t, metaOnly[0].Tier)
	assert.Equal(t, "B", *metaOnly[0].Tier)
	assert.Nil(t, metaOnly[0].DeckListJSON)

	latest, err := store.LatestPrice(ctx, "OP01-004", "")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.FetchedAt.Equal(im.now()))
}

func TestImport_Idempotent(t *testing.T) {
	store := storage.NewTestService(t)
	im := New(store, nil, nil)
	ctx := context.Background()

	seed := &Seed{
		Leaders: []LeaderRecord{{ID: "OP01-001", Name: "Zoro", Color: "Red"}},
		Decks: []DeckRecord{{
			LeaderID: "OP01-001", SourceURL: models.String("https://decks.example/1"),
			WinRate: models.Float(51), GamesPlayed: 10,
		}},
	}
	_, err := im.Import(ctx, seed)
	require.NoError(t, err)

	seed.Decks[0].WinRate = models.Float(49)
	seed.Decks[0].GamesPlayed = 20
	_, err = im.Import(ctx, seed)
	require.NoError(t, err)

	decks, err := store.ListAllDecks(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, 49.0, decks[0].WinRate)
	assert.Equal(t, 20, decks[0].GamesPlayed)
	assert.Equal(t, "B", *decks[0].Tier)
}

// failingUpdater runs the import against real repositories and then fails,
// so the transaction is rolled back.
type failingUpdater struct{ svc *storage.Service }

func (f failingUpdater) Update(ctx context.Context, fn func(*storage.Repositories) error) error {
	return f.svc.Update(ctx, func(repos *storage.Repositories) error {
		if err := fn(repos); err != nil {
			return err
		}
		return errors.New("disk full")
	})
}

func TestImport_RollsBackOnError(t *testing.T) {
	store := storage.NewTestService(t)
	im := New(failingUpdater{svc: store}, nil, nil)
	ctx := context.Background()

	_, err := im.Import(ctx, &Seed{Leaders: []LeaderRecord{{ID: "OP01-001", Name: "Zoro", Color: "Red"}}})
	require.Error(t, err)

	leaders, err := store.ListLeaders(ctx)
	require.NoError(t, err)
	assert.Empty(t, leaders)
}

func TestDeckTier(t *testing.T) {
	tests := []struct {
		name string
		rec  DeckRecord
		want *string
	}{
		{"win rate", DeckRecord{WinRate: models.Float(52)}, models.String("A")},
		{"win rate beats meta share", DeckRecord{WinRate: models.Float(45), MetaShare: models.Float(20)}, models.String("D")},
		{"meta share only", DeckRecord{MetaShare: models.Float(3)}, models.String("C")},
		{"neither", DeckRecord{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deckTier(&tt.rec))
		})
	}
}

func TestImport_ReverseMatchupUpdatesStoredPair(t *testing.T) {
	store := storage.NewTestService(t)
	im := New(store, nil, nil)
	ctx := context.Background()

	leaders := []LeaderRecord{{ID: "A", Name: "Zoro", Color: "Red"}, {ID: "B", Name: "Law", Color: "Green"}}
	_, err := im.Import(ctx, &Seed{
		Leaders:  leaders,
		Matchups: []MatchupRecord{{LeaderAID: "A", LeaderBID: "B", WinRateA: 60, SampleSize: 100}},
	})
	require.NoError(t, err)

	res, err := im.Import(ctx, &Seed{
		Matchups: []MatchupRecord{{LeaderAID: "B", LeaderBID: "A", WinRateA: 45, SampleSize: 80}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matchups)

	matchups, err := store.ListMatchups(ctx)
	require.NoError(t, err)
	require.Len(t, matchups, 1)
	assert.Equal(t, "A", matchups[0].LeaderAID)
	assert.Equal(t, "B", matchups[0].LeaderBID)
	assert.Equal(t, 55.0, matchups[0].WinRateA)
	assert.Equal(t, 80, matchups[0].SampleSize)
}
