// internal/game/engine.go
//
// Scoring engine for a single PointBattle game.
// Responsibilities:
//   - Create new games with default group labels.
//   - Validate and apply rounds (point range, round cap, completed games).
//   - Decide when a group has clinched the game before the round cap.
//   - Track state transitions: in progress → completed (one way).
//
// A group has clinched when the trailing group could not catch up even by
// scoring MaxPointsPerRound in every remaining round.
package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrGameCompleted = errors.New("game completed")
	ErrRoundLimit    = errors.New("round limit reached")
	ErrInvalidPoints = errors.New("invalid points")
	ErrRoundNotFound = errors.New("round not found")
	ErrSameGroups    = errors.New("groups share a name")
)

// New constructs an in-memory game with default labels. Blank names keep the defaults.
func New(groupA, groupB string) *Game {
	now := time.Now()
	g := &Game{
		GroupA:      defaultGroupA,
		GroupB:      defaultGroupB,
		Date:        now,
		LastUpdated: now,
		Rounds:      []Round{},
	}
	if s := strings.TrimSpace(groupA); s != "" {
		g.GroupA = s
	}
	if s := strings.TrimSpace(groupB); s != "" {
		g.GroupB = s
	}
	return g
}

// GroupATotal sums group A's points over all rounds.
func (g *Game) GroupATotal() int {
	total := 0
	for _, r := range g.Rounds {
		total += r.GroupAPoints
	}
	return total
}

// GroupBTotal sums group B's points over all rounds.
func (g *Game) GroupBTotal() int {
	total := 0
	for _, r := range g.Rounds {
		total += r.GroupBPoints
	}
	return total
}

// GroupAFullName is "primary & secondary" when a second member is set.
func (g *Game) GroupAFullName() string { return fullName(g.GroupA, g.GroupAMember2) }

// GroupBFullName is "primary & secondary" when a second member is set.
func (g *Game) GroupBFullName() string { return fullName(g.GroupB, g.GroupBMember2) }

func fullName(primary, secondary string) string {
	if secondary == "" {
		return primary
	}
	return primary + " & " + secondary
}

// ValidateGroups rejects games whose two groups would display the same name,
// since the winner is recorded by name.
func (g *Game) ValidateGroups() error {
	if strings.EqualFold(g.GroupAFullName(), g.GroupBFullName()) {
		return fmt.Errorf("%w: %q", ErrSameGroups, g.GroupAFullName())
	}
	return nil
}

// RemainingRounds is MaxRounds minus the rounds played so far.
func (g *Game) RemainingRounds() int { return MaxRounds - len(g.Rounds) }

// IsGroupAWinConfirmed reports whether group B cannot catch up anymore.
func (g *Game) IsGroupAWinConfirmed() bool {
	maxPossibleForB := g.RemainingRounds() * MaxPointsPerRound
	return g.PointsNeededForGroupB() > maxPossibleForB
}

// IsGroupBWinConfirmed reports whether group A cannot catch up anymore.
func (g *Game) IsGroupBWinConfirmed() bool {
	maxPossibleForA := g.RemainingRounds() * MaxPointsPerRound
	return g.PointsNeededForGroupA() > maxPossibleForA
}

// PointsNeededForGroupB is the lead B must overcome to win.
// Zero or negative when B already leads; callers clamp for display.
func (g *Game) PointsNeededForGroupB() int { return g.GroupATotal() - g.GroupBTotal() + 1 }

// PointsNeededForGroupA mirrors PointsNeededForGroupB.
func (g *Game) PointsNeededForGroupA() int { return g.GroupBTotal() - g.GroupATotal() + 1 }

// IsRecoverable reports whether the game has rounds but is not finished.
func (g *Game) IsRecoverable() bool { return len(g.Rounds) > 0 && !g.IsCompleted }

// RecoveryInfo summarizes a recoverable game, e.g. "Round 3/8 - 450:300".
func (g *Game) RecoveryInfo() string {
	if !g.IsRecoverable() {
		return ""
	}
	return fmt.Sprintf("Round %d/%d - %d:%d", len(g.Rounds), MaxRounds, g.GroupATotal(), g.GroupBTotal())
}

// Outcome reports the coarse result.
func (g *Game) Outcome() Outcome {
	if !g.IsCompleted {
		return OutcomeInProgress
	}
	if g.Winner == "" {
		return OutcomeTie
	}
	if a, b := g.GroupAFullName(), g.GroupBFullName(); a != b {
		switch g.Winner {
		case a:
			return OutcomeGroupA
		case b:
			return OutcomeGroupB
		}
	}
	// Names were edited after completion or cannot tell the groups apart.
	switch a, b := g.GroupATotal(), g.GroupBTotal(); {
	case a > b:
		return OutcomeGroupA
	case b > a:
		return OutcomeGroupB
	}
	return OutcomeTie
}

// AddRound validates and appends a round with the next round number,
// then re-evaluates the win condition.
//
// Validation rules:
//   - Game must not be completed.
//   - Fewer than MaxRounds rounds played.
//   - Both point values within [0, MaxPointsPerRound].
func (g *Game) AddRound(pointsA, pointsB int) (Round, error) {
	if g.IsCompleted {
		return Round{}, ErrGameCompleted
	}
	if len(g.Rounds) >= MaxRounds {
		return Round{}, ErrRoundLimit
	}
	if err := validatePoints(pointsA, pointsB); err != nil {
		return Round{}, err
	}
	r := Round{
		GameID:       g.ID,
		RoundNumber:  g.nextRoundNumber(),
		GroupAPoints: pointsA,
		GroupBPoints: pointsB,
		CreatedAt:    time.Now(),
	}
	g.Rounds = append(g.Rounds, r)
	g.Evaluate()
	return r, nil
}

// nextRoundNumber follows the highest number in use, so a deleted round's
// number is never handed out again.
func (g *Game) nextRoundNumber() int {
	n := 0
	for _, r := range g.Rounds {
		n = max(n, r.RoundNumber)
	}
	return n + 1
}

// EditRound replaces the points of an existing round and re-evaluates.
// The stored round ID is kept so a later save updates the row in place.
func (g *Game) EditRound(roundNumber, pointsA, pointsB int) error {
	if g.IsCompleted {
		return ErrGameCompleted
	}
	if err := validatePoints(pointsA, pointsB); err != nil {
		return err
	}
	for i := range g.Rounds {
		if g.Rounds[i].RoundNumber == roundNumber {
			g.Rounds[i].GroupAPoints = pointsA
			g.Rounds[i].GroupBPoints = pointsB
			g.Evaluate()
			return nil
		}
	}
	return ErrRoundNotFound
}

// Evaluate applies the completion rules. It is a no-op on completed games.
//
// State transitions:
//   - Round cap reached → completed, higher total wins; an exact tie
//     completes with an empty Winner (Outcome reports OutcomeTie).
//   - A's win confirmed → completed, Winner = A.
//   - B's win confirmed → completed, Winner = B.
func (g *Game) Evaluate() {
	if g.IsCompleted {
		return
	}
	// At the cap both clinch predicates hold on a tie (1 > 0), so the
	// cap is decided on totals first.
	if len(g.Rounds) >= MaxRounds {
		a, b := g.GroupATotal(), g.GroupBTotal()
		switch {
		case a > b:
			g.complete(g.GroupAFullName())
		case b > a:
			g.complete(g.GroupBFullName())
		default:
			g.complete("")
		}
		return
	}
	switch {
	case g.IsGroupAWinConfirmed():
		g.complete(g.GroupAFullName())
	case g.IsGroupBWinConfirmed():
		g.complete(g.GroupBFullName())
	}
}

func (g *Game) complete(winner string) {
	g.IsCompleted = true
	g.Winner = winner
}

func validatePoints(a, b int) error {
	if a < 0 || a > MaxPointsPerRound || b < 0 || b > MaxPointsPerRound {
		return fmt.Errorf("%w: points must be between 0 and %d", ErrInvalidPoints, MaxPointsPerRound)
	}
	return nil
}
