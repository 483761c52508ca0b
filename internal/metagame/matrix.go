package metagame

import (
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// Matrix constants.
const (
	mirrorWinRate = 50.0
	evenWinRate   = 50.0
)

// MatchupCell is one directed entry of the matchup matrix, from the row leader's
// perspective. SampleSize == 0 with nil first/second rates means no data was
// recorded in either direction.
type MatchupCell struct {
	LeaderAID     string   `json:"leader_a_id"`
	LeaderBID     string   `json:"leader_b_id"`
	WinRate       float64  `json:"win_rate"`
	SampleSize    int      `json:"sample_size"`
	FirstWinRate  *float64 `json:"first_win_rate"`
	SecondWinRate *float64 `json:"second_win_rate"`
}

// MatchupMatrix is the complete leader × leader view.
type MatchupMatrix struct {
	Leaders     []string                           `json:"leaders"`      // Row/column order
	LeaderNames map[string]string                  `json:"leader_names"` // ID -> name
	Matrix      map[string]map[string]*MatchupCell `json:"matrix"`       // row -> column -> cell
}

// Cell returns the cell for (a, b), or nil if either leader is not in the matrix.
func (m *MatchupMatrix) Cell(a, b string) *MatchupCell {
	row, ok := m.Matrix[a]
	if !ok {
		return nil
	}
	return row[b]
}

type pairKey struct {
	a, b string
}

// matchupIndex maps a directed pair to its stored record.
type matchupIndex map[pairKey]*models.Matchup

func indexMatchups(matchups []*models.Matchup) matchupIndex {
	idx := make(matchupIndex, len(matchups))
	for _, m := range matchups {
		if m == nil {
			continue
		}
		key := pairKey{m.LeaderAID, m.LeaderBID}
		// Duplicate rows for one direction: the latest insert wins.
		if prev, ok := idx[key]; ok && prev.ID > m.ID {
			continue
		}
		idx[key] = m
	}
	return idx
}

// Invert derives the reverse view of a matchup: B's win rate against A.
// Going first as B corresponds to A going second, so the turn-order rates are
// swapped as well as complemented.
func Invert(m *models.Matchup) *models.Matchup {
	return models.ReverseMatchup(m)
}

// cell resolves one ordered pair: mirror, direct record, derived reverse, or the
// no-data placeholder.
func (idx matchupIndex) cell(a, b string) *MatchupCell {
	if a == b {
		return &MatchupCell{
			LeaderAID:     a,
			LeaderBID:     b,
			WinRate:       mirrorWinRate,
			SampleSize:    0,
			FirstWinRate:  models.Float(mirrorWinRate),
			SecondWinRate: models.Float(mirrorWinRate),
		}
	}

	if direct, ok := idx[pairKey{a, b}]; ok {
		return cellFromMatchup(direct)
	}

	if reverse, ok := idx[pairKey{b, a}]; ok {
		return cellFromMatchup(Invert(reverse))
	}

	return &MatchupCell{
		LeaderAID:  a,
		LeaderBID:  b,
		WinRate:    evenWinRate,
		SampleSize: 0,
	}
}

func cellFromMatchup(m *models.Matchup) *MatchupCell {
	return &MatchupCell{
		LeaderAID:     m.LeaderAID,
		LeaderBID:     m.LeaderBID,
		WinRate:       m.WinRateA,
		SampleSize:    m.SampleSize,
		FirstWinRate:  copyFloat(m.FirstWinRate),
		SecondWinRate: copyFloat(m.SecondWinRate),
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return models.Float(*v)
}

// BuildMatrix builds the full matchup matrix for the given leaders. Every leader
// gets a cell against every leader including itself; matchups referencing leaders
// outside the set are ignored.
func BuildMatrix(leaders []*models.Leader, matchups []*models.Matchup) *MatchupMatrix {
	idx := indexMatchups(matchups)

	ids := make([]string, 0, len(leaders))
	names := make(map[string]string, len(leaders))
	for _, leader := range leaders {
		if leader == nil {
			continue
		}
		if _, seen := names[leader.ID]; seen {
			continue
		}
		ids = append(ids, leader.ID)
		names[leader.ID] = leader.Name
	}

	matrix := make(map[string]map[string]*MatchupCell, len(ids))
	for _, a := range ids {
		row := make(map[string]*MatchupCell, len(ids))
		for _, b := range ids {
			row[b] = idx.cell(a, b)
		}
		matrix[a] = row
	}

	return &MatchupMatrix{
		Leaders:     ids,
		LeaderNames: names,
		Matrix:      matrix,
	}
}

// LookupMatchup resolves a single ordered pair the same way BuildMatrix does.
// It returns nil when a != b and neither direction is recorded.
func LookupMatchup(a, b string, matchups []*models.Matchup) *MatchupCell {
	idx := indexMatchups(matchups)
	if a != b {
		_, direct := idx[pairKey{a, b}]
		_, reverse := idx[pairKey{b, a}]
		if !direct && !reverse {
			return nil
		}
	}
	return idx.cell(a, b)
}
