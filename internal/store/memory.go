// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used by unit tests of the recovery coordinator and the UI bridge, and for
// throwaway sessions where nothing should touch the disk.
//
// Characteristics:
//   - Games and rounds live in maps keyed by ID; IDs are assigned sequentially.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Returned games are copies, matching the detached-aggregate contract.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robalobadob/pointbattle/internal/game"
)

// memory is a map-based Store implementation.
type memory struct {
	mu        sync.RWMutex
	games     map[int64]*game.Game // rows only; Rounds kept empty
	rounds    map[int64]game.Round
	nextGame  int64
	nextRound int64
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		games:  make(map[int64]*game.Game),
		rounds: make(map[int64]game.Round),
	}
}

func (m *memory) Initialize(ctx context.Context) error { return nil }

func (m *memory) ListGames(ctx context.Context) ([]*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*game.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, m.hydrated(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memory) ListIncompleteGames(ctx context.Context) ([]*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.incompleteNewestFirst()
	for i, g := range out {
		out[i] = m.hydrated(g)
	}
	return out, nil
}

func (m *memory) GetGame(ctx context.Context, id int64) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.hydrated(g), nil
}

func (m *memory) GetMostRecentIncompleteGame(ctx context.Context) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	incomplete := m.incompleteNewestFirst()
	if len(incomplete) == 0 {
		return nil, ErrNotFound
	}
	g := m.hydrated(incomplete[0])
	if len(g.Rounds) == 0 {
		return nil, ErrNotFound
	}
	return g, nil
}

func (m *memory) SaveGame(ctx context.Context, g *game.Game) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == 0 {
		m.insertGame(g)
		return g.ID, nil
	}
	if err := m.updateGame(g); err != nil {
		return 0, err
	}
	return g.ID, nil
}

// SaveGameAtomically holds the write lock for the whole save, so it is
// all-or-nothing with respect to other callers. Validation happens before any
// mutation, which keeps failed saves side-effect free.
func (m *memory) SaveGameAtomically(ctx context.Context, g *game.Game) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == 0 {
		m.insertGame(g)
		for i := range g.Rounds {
			m.insertRound(g.ID, &g.Rounds[i])
		}
		return g.ID, nil
	}
	if err := m.updateGame(g); err != nil {
		return 0, err
	}
	return g.ID, nil
}

func (m *memory) AddRound(ctx context.Context, gameID int64, roundNumber, pointsA, pointsB int) (game.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := game.Round{RoundNumber: roundNumber, GroupAPoints: pointsA, GroupBPoints: pointsB}
	m.insertRound(gameID, &r)
	return r, nil
}

func (m *memory) UpdateRound(ctx context.Context, r game.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rounds[r.ID]
	if !ok {
		return ErrNotFound
	}
	cur.GroupAPoints = r.GroupAPoints
	cur.GroupBPoints = r.GroupBPoints
	m.rounds[r.ID] = cur
	return nil
}

func (m *memory) DeleteGame(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for rid, r := range m.rounds {
		if r.GameID == id {
			delete(m.rounds, rid)
		}
	}
	if _, ok := m.games[id]; !ok {
		return ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *memory) DeleteRound(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[id]; !ok {
		return ErrNotFound
	}
	delete(m.rounds, id)
	return nil
}

func (m *memory) DeleteAllGames(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds = make(map[int64]game.Round)
	m.games = make(map[int64]*game.Game)
	return nil
}

func (m *memory) ListDistinctPlayerNames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, g := range m.games {
		for _, n := range []string{g.GroupA, g.GroupAMember2, g.GroupB, g.GroupBMember2} {
			if n = strings.TrimSpace(n); n != "" {
				seen[n] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

/* ------------------------------ helpers --------------------------------- */

// hydrated returns a copy of the game row with its rounds attached. Callers hold mu.
func (m *memory) hydrated(row *game.Game) *game.Game {
	g := *row
	g.Rounds = []game.Round{}
	for _, r := range m.rounds {
		if r.GameID == row.ID {
			g.Rounds = append(g.Rounds, r)
		}
	}
	sort.Slice(g.Rounds, func(i, j int) bool { return g.Rounds[i].RoundNumber < g.Rounds[j].RoundNumber })
	return &g
}

func (m *memory) incompleteNewestFirst() []*game.Game {
	var out []*game.Game
	for _, g := range m.games {
		if !g.IsCompleted {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memory) insertGame(g *game.Game) {
	m.nextGame++
	g.ID = m.nextGame
	if g.Date.IsZero() {
		g.Date = time.Now()
	}
	if g.LastUpdated.IsZero() {
		g.LastUpdated = g.Date
	}
	for i := range g.Rounds {
		g.Rounds[i].GameID = g.ID
	}
	row := *g
	row.Rounds = nil
	m.games[g.ID] = &row
}

func (m *memory) updateGame(g *game.Game) error {
	row, ok := m.games[g.ID]
	if !ok {
		return ErrNotFound
	}
	if !row.LastUpdated.Equal(g.LastUpdated) {
		return ErrConflict
	}
	next := time.Now()
	if !next.After(g.LastUpdated) {
		next = g.LastUpdated.Add(time.Nanosecond)
	}
	g.LastUpdated = next
	updated := *g
	updated.Rounds = nil
	m.games[g.ID] = &updated

	for i := range g.Rounds {
		if g.Rounds[i].ID != 0 {
			g.Rounds[i].GameID = g.ID
			m.rounds[g.Rounds[i].ID] = g.Rounds[i]
			continue
		}
		m.insertRound(g.ID, &g.Rounds[i])
	}
	return nil
}

func (m *memory) insertRound(gameID int64, r *game.Round) {
	m.nextRound++
	r.ID = m.nextRound
	r.GameID = gameID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.rounds[r.ID] = *r
}
