package game

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gameWithRounds builds a game from raw (a, b) pairs without running Evaluate.
func gameWithRounds(points ...[2]int) *Game {
	g := New("Alpha", "Beta")
	for i, p := range points {
		g.Rounds = append(g.Rounds, Round{RoundNumber: i + 1, GroupAPoints: p[0], GroupBPoints: p[1]})
	}
	return g
}

func TestNewDefaults(t *testing.T) {
	g := New("  ", "")
	assert.Equal(t, "Group A", g.GroupA)
	assert.Equal(t, "Group B", g.GroupB)
	assert.Zero(t, g.ID)
	assert.False(t, g.Date.IsZero())
	assert.Empty(t, g.Rounds)
	assert.Equal(t, OutcomeInProgress, g.Outcome())
}

func TestTotalsAreRoundSums(t *testing.T) {
	g := gameWithRounds([2]int{100, 50}, [2]int{0, 400}, [2]int{250, 125})
	assert.Equal(t, 350, g.GroupATotal())
	assert.Equal(t, 575, g.GroupBTotal())
}

func TestFullNames(t *testing.T) {
	g := New("Sara", "Omar")
	assert.Equal(t, "Sara", g.GroupAFullName())
	g.GroupAMember2 = "Lana"
	g.GroupBMember2 = "Karwan"
	assert.Equal(t, "Sara & Lana", g.GroupAFullName())
	assert.Equal(t, "Omar & Karwan", g.GroupBFullName())
}

func TestPointsNeeded(t *testing.T) {
	cases := []struct {
		name   string
		rounds [][2]int
		needB  int
		needA  int
	}{
		{"empty", nil, 1, 1},
		{"a leads", [][2]int{{300, 100}}, 201, -199},
		{"b leads", [][2]int{{50, 400}}, -349, 351},
		{"tied", [][2]int{{200, 200}}, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := gameWithRounds(tc.rounds...)
			assert.Equal(t, tc.needB, g.PointsNeededForGroupB())
			assert.Equal(t, tc.needA, g.PointsNeededForGroupA())
			assert.Equal(t, g.GroupATotal()-g.GroupBTotal()+1, g.PointsNeededForGroupB())
		})
	}
}

func TestGroupAWinConfirmedAfterFiveRounds(t *testing.T) {
	g := gameWithRounds([2]int{400, 0}, [2]int{400, 0}, [2]int{400, 0}, [2]int{0, 0}, [2]int{0, 0})
	require.Equal(t, 1200, g.GroupATotal())
	assert.Equal(t, 3, g.RemainingRounds())
	assert.Equal(t, 1201, g.PointsNeededForGroupB())
	assert.True(t, g.IsGroupAWinConfirmed())
	assert.False(t, g.IsGroupBWinConfirmed())
}

func TestWinNotConfirmedWhenCatchUpPossible(t *testing.T) {
	g := gameWithRounds([2]int{400, 0}, [2]int{400, 0}, [2]int{399, 0}, [2]int{0, 0}, [2]int{0, 0})
	assert.False(t, g.IsGroupAWinConfirmed())
}

func TestWinConfirmationIsMonotonic(t *testing.T) {
	g := gameWithRounds([2]int{400, 0}, [2]int{400, 0}, [2]int{400, 0}, [2]int{400, 0}, [2]int{1, 0})
	require.True(t, g.IsGroupAWinConfirmed())

	// Worst case for A: B scores the maximum in every remaining round.
	for len(g.Rounds) < MaxRounds {
		g.Rounds = append(g.Rounds, Round{RoundNumber: len(g.Rounds) + 1, GroupBPoints: MaxPointsPerRound})
		assert.True(t, g.IsGroupAWinConfirmed(), "after %d rounds", len(g.Rounds))
	}
}

func TestAddRoundClinchCompletesGame(t *testing.T) {
	g := New("Alpha", "Beta")
	for i := 0; i < 3; i++ {
		_, err := g.AddRound(400, 0)
		require.NoError(t, err)
	}
	_, err := g.AddRound(0, 0)
	require.NoError(t, err)
	assert.False(t, g.IsCompleted)

	r, err := g.AddRound(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, r.RoundNumber)
	assert.True(t, g.IsCompleted)
	assert.Equal(t, "Alpha", g.Winner)
	assert.Equal(t, OutcomeGroupA, g.Outcome())

	_, err = g.AddRound(10, 10)
	assert.ErrorIs(t, err, ErrGameCompleted)
}

func TestRoundCapHigherTotalWins(t *testing.T) {
	g := New("Alpha", "Beta")
	g.GroupBMember2 = "Gamma"
	// Alternating small rounds so neither side clinches early.
	pts := [][2]int{{40, 35}, {35, 40}, {40, 35}, {35, 40}, {40, 35}, {35, 40}, {40, 35}, {35, 20}}
	for i, p := range pts {
		_, err := g.AddRound(p[0], p[1])
		require.NoError(t, err)
		if i < len(pts)-1 {
			require.False(t, g.IsCompleted, "completed early after round %d", i+1)
		}
	}
	require.Equal(t, 300, g.GroupATotal())
	require.Equal(t, 280, g.GroupBTotal())
	assert.True(t, g.IsCompleted)
	assert.Equal(t, "Alpha", g.Winner)

	_, err := g.AddRound(1, 1)
	assert.ErrorIs(t, err, ErrGameCompleted)
}

func TestRoundCapTie(t *testing.T) {
	g := New("Alpha", "Beta")
	for i := 0; i < MaxRounds; i++ {
		_, err := g.AddRound(100, 100)
		require.NoError(t, err)
	}
	assert.True(t, g.IsCompleted)
	assert.Empty(t, g.Winner)
	assert.Equal(t, OutcomeTie, g.Outcome())
}

func TestRoundLimitWithoutEvaluate(t *testing.T) {
	g := gameWithRounds(
		[2]int{1, 1}, [2]int{1, 1}, [2]int{1, 1}, [2]int{1, 1},
		[2]int{1, 1}, [2]int{1, 1}, [2]int{1, 1}, [2]int{1, 1},
	)
	_, err := g.AddRound(1, 1)
	assert.ErrorIs(t, err, ErrRoundLimit)
}

func TestAddRoundRejectsInvalidPoints(t *testing.T) {
	g := New("", "")
	for _, p := range [][2]int{{-1, 0}, {0, -5}, {401, 0}, {0, 1000}} {
		_, err := g.AddRound(p[0], p[1])
		assert.ErrorIs(t, err, ErrInvalidPoints)
	}
	assert.Empty(t, g.Rounds)
}

func TestEditRound(t *testing.T) {
	g := New("Alpha", "Beta")
	_, err := g.AddRound(100, 50)
	require.NoError(t, err)
	g.Rounds[0].ID = 42

	require.NoError(t, g.EditRound(1, 10, 20))
	assert.Equal(t, int64(42), g.Rounds[0].ID)
	assert.Equal(t, 10, g.GroupATotal())
	assert.Equal(t, 20, g.GroupBTotal())

	assert.ErrorIs(t, g.EditRound(2, 1, 1), ErrRoundNotFound)
	assert.ErrorIs(t, g.EditRound(1, 500, 1), ErrInvalidPoints)
}

func TestAddRoundSkipsNumbersOfRemovedRounds(t *testing.T) {
	g := gameWithRounds([2]int{10, 10}, [2]int{10, 10}, [2]int{10, 10})
	// Round 2 was removed from storage and the game reloaded.
	g.Rounds = append(g.Rounds[:1], g.Rounds[2:]...)

	r, err := g.AddRound(5, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, r.RoundNumber)

	seen := map[int]bool{}
	for _, r := range g.Rounds {
		assert.False(t, seen[r.RoundNumber], "round %d repeated", r.RoundNumber)
		seen[r.RoundNumber] = true
	}
}

func TestValidateGroups(t *testing.T) {
	assert.NoError(t, New("Alpha", "Beta").ValidateGroups())
	assert.ErrorIs(t, New("Alpha", "alpha").ValidateGroups(), ErrSameGroups)

	g := New("Alpha", "Alpha")
	g.GroupBMember2 = "Ann"
	assert.NoError(t, g.ValidateGroups())
}

func TestOutcomeWithIdenticalNamesUsesTotals(t *testing.T) {
	g := gameWithRounds([2]int{0, 400}, [2]int{0, 400}, [2]int{0, 400}, [2]int{0, 400})
	g.GroupA, g.GroupB = "Same", "Same"
	g.Evaluate()
	require.True(t, g.IsCompleted)
	assert.Equal(t, "Same", g.Winner)
	assert.Equal(t, OutcomeGroupB, g.Outcome())
}

func TestEditRoundCanClinch(t *testing.T) {
	g := New("Alpha", "Beta")
	for i := 0; i < 5; i++ {
		_, err := g.AddRound(0, 0)
		require.NoError(t, err)
	}
	require.NoError(t, g.EditRound(1, 0, 400))
	require.NoError(t, g.EditRound(2, 0, 400))
	assert.False(t, g.IsCompleted)
	require.NoError(t, g.EditRound(3, 0, 400))
	assert.True(t, g.IsCompleted)
	assert.Equal(t, "Beta", g.Winner)
}

func TestRecoverable(t *testing.T) {
	g := New("Alpha", "Beta")
	assert.False(t, g.IsRecoverable())
	assert.Empty(t, g.RecoveryInfo())

	_, err := g.AddRound(150, 300)
	require.NoError(t, err)
	assert.True(t, g.IsRecoverable())
	assert.Equal(t, "Round 1/8 - 150:300", g.RecoveryInfo())

	g.IsCompleted = true
	assert.False(t, g.IsRecoverable())
}

func TestRandomGamesKeepInvariants(t *testing.T) {
	f := gofakeit.New(42)
	for trial := 0; trial < 200; trial++ {
		g := New("A "+f.FirstName(), "B "+f.FirstName())
		sumA, sumB := 0, 0
		for !g.IsCompleted {
			a, b := f.Number(0, MaxPointsPerRound), f.Number(0, MaxPointsPerRound)
			_, err := g.AddRound(a, b)
			require.NoError(t, err)
			sumA += a
			sumB += b
			require.Equal(t, sumA, g.GroupATotal())
			require.Equal(t, sumB, g.GroupBTotal())
			require.LessOrEqual(t, len(g.Rounds), MaxRounds)
		}
		switch g.Outcome() {
		case OutcomeGroupA:
			assert.GreaterOrEqual(t, sumA, sumB, "trial %d", trial)
		case OutcomeGroupB:
			assert.GreaterOrEqual(t, sumB, sumA, "trial %d", trial)
		case OutcomeTie:
			assert.Equal(t, sumA, sumB, "trial %d", trial)
			assert.Len(t, g.Rounds, MaxRounds)
		default:
			t.Fatalf("trial %d: completed game reports %q", trial, g.Outcome())
		}
	}
}

func TestRandomWinConfirmationIsMonotonic(t *testing.T) {
	f := gofakeit.New(7)
	for trial := 0; trial < 200; trial++ {
		g := New("A", "B")
		confirmedA, confirmedB := false, false
		for len(g.Rounds) < MaxRounds {
			g.Rounds = append(g.Rounds, Round{
				RoundNumber:  len(g.Rounds) + 1,
				GroupAPoints: f.Number(0, MaxPointsPerRound),
				GroupBPoints: f.Number(0, MaxPointsPerRound),
			})
			if confirmedA {
				require.True(t, g.IsGroupAWinConfirmed(), "trial %d round %d", trial, len(g.Rounds))
			}
			if confirmedB {
				require.True(t, g.IsGroupBWinConfirmed(), "trial %d round %d", trial, len(g.Rounds))
			}
			confirmedA = g.IsGroupAWinConfirmed()
			confirmedB = g.IsGroupBWinConfirmed()
		}
	}
}
