// internal/recovery/recovery.go
//
// Startup recovery of an unfinished game.
// Responsibilities:
//   - Look for the most recent incomplete game once per launch.
//   - Resume a candidate (flag it as recovered and save it).
//   - Discard a candidate (delete it with its rounds).
//
// The once-per-launch bookkeeping lives in session.State, which is passed in
// so a new process always starts with a fresh check.

package recovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pointbattle/internal/game"
	"github.com/robalobadob/pointbattle/internal/session"
	"github.com/robalobadob/pointbattle/internal/store"
)

var (
	// ErrAlreadyChecked is returned by Check after the first call in a launch.
	ErrAlreadyChecked = errors.New("recovery already checked for this launch")
	// ErrNoCandidate means there is no incomplete game with rounds.
	ErrNoCandidate = errors.New("no game to recover")
	// ErrNotRecoverable is returned when resuming a completed or empty game.
	ErrNotRecoverable = errors.New("game is not recoverable")
)

// Coordinator decides which game, if any, the UI should offer to resume.
type Coordinator struct {
	store   store.Store
	session *session.State
}

// New wires a coordinator to the store and this launch's session state.
func New(st store.Store, sess *session.State) *Coordinator {
	return &Coordinator{store: st, session: sess}
}

// Check runs the recovery lookup on its first call per launch.
//
//   - First call: returns the candidate or ErrNoCandidate.
//   - Later calls: ErrAlreadyChecked, without touching the store.
//   - Store faults are returned as-is and do not consume the check, so the
//     UI can retry once the store is reachable.
func (c *Coordinator) Check(ctx context.Context) (*game.Game, error) {
	if c.session.HasCheckedForRecovery() {
		return nil, ErrAlreadyChecked
	}

	g, err := c.store.GetMostRecentIncompleteGame(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if !c.session.MarkRecoveryChecked() {
			return nil, ErrAlreadyChecked
		}
		log.Debug().Msg("no game to recover")
		return nil, ErrNoCandidate
	case err != nil:
		log.Warn().Err(err).Msg("recovery check failed")
		return nil, fmt.Errorf("recovery check: %w", err)
	}

	if !c.session.MarkRecoveryChecked() {
		return nil, ErrAlreadyChecked
	}
	log.Info().Int64("gameId", g.ID).Str("progress", g.RecoveryInfo()).Msg("found game to recover")
	return g, nil
}

// Resume marks the game as recovered, persists the flag and returns the game.
func (c *Coordinator) Resume(ctx context.Context, id int64) (*game.Game, error) {
	g, err := c.store.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.IsRecoverable() {
		return nil, ErrNotRecoverable
	}
	g.WasRecovered = true
	if _, err := c.store.SaveGameAtomically(ctx, g); err != nil {
		return nil, fmt.Errorf("resume game %d: %w", id, err)
	}
	c.session.MarkRecoveryChecked()
	log.Info().Int64("gameId", id).Msg("game resumed")
	return g, nil
}

// Discard deletes the candidate game and its rounds.
func (c *Coordinator) Discard(ctx context.Context, id int64) error {
	if err := c.store.DeleteGame(ctx, id); err != nil {
		return fmt.Errorf("discard game %d: %w", id, err)
	}
	c.session.MarkRecoveryChecked()
	log.Info().Int64("gameId", id).Msg("recovery candidate discarded")
	return nil
}
