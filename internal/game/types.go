// internal/game/types.go
//
// Core type definitions for the PointBattle game aggregate.
// Defines:
//   - Game: one contest between two groups, with its ordered rounds.
//   - Round: one scoring entry for both groups.
//   - Outcome: coarse game result (in progress, group A, group B, tie).

package game

import "time"

const (
	// MaxRounds is the fixed number of rounds in a game.
	MaxRounds = 8
	// MaxPointsPerRound caps the points a group can score in a single round.
	MaxPointsPerRound = 400

	defaultGroupA = "Group A"
	defaultGroupB = "Group B"
)

// Outcome is the coarse result of a game.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeGroupA     Outcome = "group_a"
	OutcomeGroupB     Outcome = "group_b"
	OutcomeTie        Outcome = "tie"
)

// Game holds the state of a single PointBattle game.
// It is a detached copy: changes only reach the store when saved.
type Game struct {
	ID            int64     `json:"id"` // 0 until first persisted
	GroupA        string    `json:"groupA"`
	GroupAMember2 string    `json:"groupAMember2"`
	GroupB        string    `json:"groupB"`
	GroupBMember2 string    `json:"groupBMember2"`
	Date          time.Time `json:"date"`
	Winner        string    `json:"winner"` // full name of the winning group, empty until decided (and on a tie)
	IsCompleted   bool      `json:"isCompleted"`
	LastUpdated   time.Time `json:"lastUpdated"`
	WasRecovered  bool      `json:"wasRecovered"`
	Rounds        []Round   `json:"rounds"` // ordered by RoundNumber
}

// Round is one scoring entry. RoundNumber is 1-based and unique within a game.
type Round struct {
	ID           int64     `json:"id"`
	GameID       int64     `json:"gameId"`
	RoundNumber  int       `json:"roundNumber"`
	GroupAPoints int       `json:"groupAPoints"`
	GroupBPoints int       `json:"groupBPoints"`
	CreatedAt    time.Time `json:"createdAt"`
}
