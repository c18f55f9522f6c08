// Package session holds per-launch state: the launch identifier and the
// flags the UI consults before prompting for game recovery.
//
// A State is created once when the process starts and handed to whoever
// needs it. Nothing is persisted; a restart yields a fresh State.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State tracks whether this launch has already looked for a game to recover.
type State struct {
	mu              sync.Mutex
	id              string
	startedAt       time.Time
	checkedRecovery bool
	firstLaunch     bool
}

// New returns the state for a fresh process launch.
func New() *State {
	return &State{
		id:          uuid.NewString(),
		startedAt:   time.Now(),
		firstLaunch: true,
	}
}

// ID identifies this launch. Tokens issued to the UI are bound to it.
func (s *State) ID() string { return s.id }

// StartedAt is when the launch state was created.
func (s *State) StartedAt() time.Time { return s.startedAt }

// HasCheckedForRecovery reports whether the recovery check already ran.
func (s *State) HasCheckedForRecovery() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkedRecovery
}

// IsFirstLaunch is true until the recovery check has run.
func (s *State) IsFirstLaunch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstLaunch
}

// MarkRecoveryChecked records that the recovery check ran. It reports
// whether this call was the one that flipped the flag.
func (s *State) MarkRecoveryChecked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkedRecovery {
		return false
	}
	s.checkedRecovery = true
	s.firstLaunch = false
	return true
}

// Reset restores the flags to their launch values. The ID is kept.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkedRecovery = false
	s.firstLaunch = true
}

// Snapshot is a point-in-time copy of the state, for JSON responses.
type Snapshot struct {
	ID                    string    `json:"id"`
	StartedAt             time.Time `json:"startedAt"`
	IsFirstLaunch         bool      `json:"isFirstLaunch"`
	HasCheckedForRecovery bool      `json:"hasCheckedForRecovery"`
}

// Snapshot copies the current flags.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:                    s.id,
		StartedAt:             s.startedAt,
		IsFirstLaunch:         s.firstLaunch,
		HasCheckedForRecovery: s.checkedRecovery,
	}
}
