// internal/store/store.go
//
// Persistence interface for PointBattle games and rounds.
// Implementations:
//   - SQLiteStore (sqlite.go): the durable on-device store.
//   - memory (memory.go): map-backed, used in tests and for throwaway sessions.
//
// Error contract:
//   - ErrNotFound: the lookup succeeded but there is nothing to return.
//   - ErrUnavailable: the store could not be read; wraps the driver error.
//   - ErrConflict: a game row changed since the aggregate was loaded.
//
// Writers are expected to hold at most one in-flight save per game; the
// LastUpdated check turns a lost update into ErrConflict instead of a silent
// overwrite.

package store

import (
	"context"
	"errors"

	"github.com/robalobadob/pointbattle/internal/game"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("store unavailable")
	ErrConflict    = errors.New("game was modified concurrently")
)

// Store defines the persistence operations consumed by the UI bridge and
// the recovery coordinator.
type Store interface {
	// Initialize prepares the backing storage. Safe to call repeatedly.
	Initialize(ctx context.Context) error

	// ListGames returns every game hydrated with its rounds (by round number).
	ListGames(ctx context.Context) ([]*game.Game, error)

	// GetGame returns one hydrated game or ErrNotFound.
	GetGame(ctx context.Context, id int64) (*game.Game, error)

	// GetMostRecentIncompleteGame returns the newest incomplete game, but only
	// when it has at least one round; otherwise ErrNotFound.
	GetMostRecentIncompleteGame(ctx context.Context) (*game.Game, error)

	// ListIncompleteGames returns incomplete games, newest first.
	ListIncompleteGames(ctx context.Context) ([]*game.Game, error)

	// SaveGame inserts a new game (rounds are not written) or updates an
	// existing one together with its rounds. Returns the game ID.
	SaveGame(ctx context.Context, g *game.Game) (int64, error)

	// SaveGameAtomically is SaveGame inside a single transaction. For a new
	// game the aggregate's rounds are inserted as well.
	SaveGameAtomically(ctx context.Context, g *game.Game) (int64, error)

	// AddRound inserts one round row and returns it with its ID.
	AddRound(ctx context.Context, gameID int64, roundNumber, pointsA, pointsB int) (game.Round, error)

	// UpdateRound rewrites the two point columns of an existing round.
	UpdateRound(ctx context.Context, r game.Round) error

	// DeleteGame removes the game's rounds and then the game row.
	DeleteGame(ctx context.Context, id int64) error

	DeleteRound(ctx context.Context, id int64) error

	// DeleteAllGames clears both tables.
	DeleteAllGames(ctx context.Context) error

	// ListDistinctPlayerNames returns every non-blank name used in any game,
	// deduplicated and sorted.
	ListDistinctPlayerNames(ctx context.Context) ([]string, error)
}

// cloneGame deep-copies g so a failed transaction leaves the caller's copy untouched.
func cloneGame(g *game.Game) *game.Game {
	c := *g
	c.Rounds = append([]game.Round(nil), g.Rounds...)
	return &c
}
