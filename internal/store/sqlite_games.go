// internal/store/sqlite_games.go
//
// Game and round CRUD for SQLiteStore.
// Read paths: ErrNotFound for empty lookups, ErrUnavailable for faults; a
// failure to load one game's rounds degrades that game to zero rounds.
// Write paths: errors are logged and returned to the caller.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pointbattle/internal/game"
)

const gameColumns = `Id, GroupA, GroupAMember2, GroupB, GroupBMember2, Date, Winner, IsCompleted, LastUpdated, WasRecovered`

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListGames returns all games in insertion order, each with its rounds.
func (s *SQLiteStore) ListGames(ctx context.Context) ([]*game.Game, error) {
	return s.queryGames(ctx, "list games", `SELECT `+gameColumns+` FROM games ORDER BY Id`)
}

// ListIncompleteGames returns incomplete games, newest first.
func (s *SQLiteStore) ListIncompleteGames(ctx context.Context) ([]*game.Game, error) {
	return s.queryGames(ctx, "list incomplete games",
		`SELECT `+gameColumns+` FROM games WHERE IsCompleted = 0 ORDER BY Date DESC, Id DESC`)
}

// GetGame loads a single game with its rounds.
func (s *SQLiteStore) GetGame(ctx context.Context, id int64) (*game.Game, error) {
	return s.queryGame(ctx, "get game", `SELECT `+gameColumns+` FROM games WHERE Id = ?`, id)
}

// GetMostRecentIncompleteGame returns the newest incomplete game if it has rounds.
func (s *SQLiteStore) GetMostRecentIncompleteGame(ctx context.Context) (*game.Game, error) {
	g, err := s.queryGame(ctx, "get most recent incomplete game",
		`SELECT `+gameColumns+` FROM games WHERE IsCompleted = 0 ORDER BY Date DESC, Id DESC LIMIT 1`)
	if err != nil {
		return nil, err
	}
	if len(g.Rounds) == 0 {
		return nil, ErrNotFound
	}
	return g, nil
}

// ListDistinctPlayerNames collects all four name columns, trimmed and deduplicated.
func (s *SQLiteStore) ListDistinctPlayerNames(ctx context.Context) ([]string, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, unavailable("list player names", err)
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT name FROM (
            SELECT TRIM(GroupA) AS name FROM games
            UNION SELECT TRIM(GroupAMember2) FROM games
            UNION SELECT TRIM(GroupB) FROM games
            UNION SELECT TRIM(GroupBMember2) FROM games
        )
        WHERE name <> ''
        ORDER BY name`)
	if err != nil {
		return nil, unavailable("list player names", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, unavailable("list player names", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list player names", err)
	}
	return out, nil
}

// SaveGame inserts a new game row or updates an existing game and its rounds,
// one statement at a time.
func (s *SQLiteStore) SaveGame(ctx context.Context, g *game.Game) (int64, error) {
	if err := s.Initialize(ctx); err != nil {
		return 0, err
	}
	if g.ID == 0 {
		if err := insertGame(ctx, s.db, g); err != nil {
			return 0, writeFailed("insert game", g.ID, err)
		}
		return g.ID, nil
	}
	if err := updateGameAndRounds(ctx, s.db, g); err != nil {
		return 0, writeFailed("save game", g.ID, err)
	}
	return g.ID, nil
}

// SaveGameAtomically performs the save inside a transaction. The caller's
// aggregate is only updated (IDs, LastUpdated) once the commit succeeds.
func (s *SQLiteStore) SaveGameAtomically(ctx context.Context, g *game.Game) (int64, error) {
	if err := s.Initialize(ctx); err != nil {
		return 0, err
	}
	work := cloneGame(g)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, writeFailed("begin save", g.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if work.ID == 0 {
		if err := insertGame(ctx, tx, work); err != nil {
			return 0, writeFailed("insert game", g.ID, err)
		}
		for i := range work.Rounds {
			if err := insertRound(ctx, tx, work.ID, &work.Rounds[i]); err != nil {
				return 0, writeFailed("insert round", g.ID, err)
			}
		}
	} else if err := updateGameAndRounds(ctx, tx, work); err != nil {
		return 0, writeFailed("save game", g.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, writeFailed("commit save", g.ID, err)
	}
	*g = *work
	return g.ID, nil
}

// AddRound inserts a single round row.
func (s *SQLiteStore) AddRound(ctx context.Context, gameID int64, roundNumber, pointsA, pointsB int) (game.Round, error) {
	if err := s.Initialize(ctx); err != nil {
		return game.Round{}, err
	}
	r := game.Round{
		RoundNumber:  roundNumber,
		GroupAPoints: pointsA,
		GroupBPoints: pointsB,
		CreatedAt:    time.Now(),
	}
	if err := insertRound(ctx, s.db, gameID, &r); err != nil {
		return game.Round{}, writeFailed("add round", gameID, err)
	}
	return r, nil
}

// UpdateRound updates only the point columns of the round with r.ID.
func (s *SQLiteStore) UpdateRound(ctx context.Context, r game.Round) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET GroupAPoints = ?, GroupBPoints = ? WHERE Id = ?`,
		r.GroupAPoints, r.GroupBPoints, r.ID)
	if err != nil {
		return writeFailed("update round", r.GameID, err)
	}
	return requireAffected(res)
}

// DeleteGame removes the rounds and then the game row. The two statements
// are not wrapped in a transaction: a crash in between leaves orphan rounds,
// which are unreachable because rounds are only read through their game.
func (s *SQLiteStore) DeleteGame(ctx context.Context, id int64) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rounds WHERE GameId = ?`, id); err != nil {
		return writeFailed("delete rounds", id, err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE Id = ?`, id)
	if err != nil {
		return writeFailed("delete game", id, err)
	}
	return requireAffected(res)
}

// DeleteRound removes one round row by ID.
func (s *SQLiteStore) DeleteRound(ctx context.Context, id int64) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM rounds WHERE Id = ?`, id)
	if err != nil {
		return writeFailed("delete round", 0, err)
	}
	return requireAffected(res)
}

// DeleteAllGames clears the rounds and games tables.
func (s *SQLiteStore) DeleteAllGames(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rounds`); err != nil {
		return writeFailed("delete all rounds", 0, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM games`); err != nil {
		return writeFailed("delete all games", 0, err)
	}
	return nil
}

/* ------------------------------ helpers --------------------------------- */

func (s *SQLiteStore) queryGames(ctx context.Context, op, query string, args ...any) ([]*game.Game, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, unavailable(op, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	games := []*game.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			rows.Close()
			return nil, unavailable(op, err)
		}
		games = append(games, g)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, unavailable(op, err)
	}

	// Hydrate after the game cursor is closed; the pool holds one connection.
	for _, g := range games {
		s.hydrate(ctx, g)
	}
	return games, nil
}

func (s *SQLiteStore) queryGame(ctx context.Context, op, query string, args ...any) (*game.Game, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, unavailable(op, err)
	}
	g, err := scanGame(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	s.hydrate(ctx, g)
	return g, nil
}

// hydrate loads g's rounds; on failure g keeps an empty round list.
func (s *SQLiteStore) hydrate(ctx context.Context, g *game.Game) {
	rounds, err := loadRounds(ctx, s.db, g.ID)
	if err != nil {
		log.Warn().Err(err).Int64("gameId", g.ID).Msg("load rounds")
		g.Rounds = []game.Round{}
		return
	}
	g.Rounds = rounds
}

func loadRounds(ctx context.Context, q dbtx, gameID int64) ([]game.Round, error) {
	rows, err := q.QueryContext(ctx, `
        SELECT Id, GameId, RoundNumber, GroupAPoints, GroupBPoints, CreatedAt
        FROM rounds WHERE GameId = ? ORDER BY RoundNumber ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []game.Round{}
	for rows.Next() {
		var r game.Round
		var created int64
		if err := rows.Scan(&r.ID, &r.GameID, &r.RoundNumber, &r.GroupAPoints, &r.GroupBPoints, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = fromNanos(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*game.Game, error) {
	var g game.Game
	var date, updated int64
	if err := row.Scan(&g.ID, &g.GroupA, &g.GroupAMember2, &g.GroupB, &g.GroupBMember2,
		&date, &g.Winner, &g.IsCompleted, &updated, &g.WasRecovered); err != nil {
		return nil, err
	}
	g.Date = fromNanos(date)
	g.LastUpdated = fromNanos(updated)
	g.Rounds = []game.Round{}
	return &g, nil
}

func insertGame(ctx context.Context, q dbtx, g *game.Game) error {
	if g.Date.IsZero() {
		g.Date = time.Now()
	}
	if g.LastUpdated.IsZero() {
		g.LastUpdated = g.Date
	}
	res, err := q.ExecContext(ctx, `
        INSERT INTO games (GroupA, GroupAMember2, GroupB, GroupBMember2, Date, Winner, IsCompleted, LastUpdated, WasRecovered)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.GroupA, g.GroupAMember2, g.GroupB, g.GroupBMember2,
		g.Date.UnixNano(), g.Winner, g.IsCompleted, g.LastUpdated.UnixNano(), g.WasRecovered)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = id
	for i := range g.Rounds {
		g.Rounds[i].GameID = id
	}
	return nil
}

// updateGameAndRounds updates the game row under the LastUpdated check, then
// updates rounds that have an ID and inserts the rest.
func updateGameAndRounds(ctx context.Context, q dbtx, g *game.Game) error {
	prev := g.LastUpdated
	next := time.Now()
	if !next.After(prev) {
		next = prev.Add(time.Nanosecond)
	}

	res, err := q.ExecContext(ctx, `
        UPDATE games SET GroupA = ?, GroupAMember2 = ?, GroupB = ?, GroupBMember2 = ?,
            Date = ?, Winner = ?, IsCompleted = ?, LastUpdated = ?, WasRecovered = ?
        WHERE Id = ? AND LastUpdated = ?`,
		g.GroupA, g.GroupAMember2, g.GroupB, g.GroupBMember2,
		g.Date.UnixNano(), g.Winner, g.IsCompleted, next.UnixNano(), g.WasRecovered,
		g.ID, prev.UnixNano())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		var one int
		err := q.QueryRowContext(ctx, `SELECT 1 FROM games WHERE Id = ?`, g.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	g.LastUpdated = next

	for i := range g.Rounds {
		r := &g.Rounds[i]
		if r.ID != 0 {
			if _, err := q.ExecContext(ctx, `
                UPDATE rounds SET GameId = ?, RoundNumber = ?, GroupAPoints = ?, GroupBPoints = ?, CreatedAt = ?
                WHERE Id = ?`,
				g.ID, r.RoundNumber, r.GroupAPoints, r.GroupBPoints, r.CreatedAt.UnixNano(), r.ID); err != nil {
				return err
			}
			continue
		}
		if err := insertRound(ctx, q, g.ID, r); err != nil {
			return err
		}
	}
	return nil
}

func insertRound(ctx context.Context, q dbtx, gameID int64, r *game.Round) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := q.ExecContext(ctx, `
        INSERT INTO rounds (GameId, RoundNumber, GroupAPoints, GroupBPoints, CreatedAt)
        VALUES (?, ?, ?, ?, ?)`,
		gameID, r.RoundNumber, r.GroupAPoints, r.GroupBPoints, r.CreatedAt.UnixNano())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	r.GameID = gameID
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func fromNanos(n int64) time.Time { return time.Unix(0, n) }

// unavailable logs a read fault and wraps it with ErrUnavailable.
func unavailable(op string, err error) error {
	log.Warn().Err(err).Str("op", op).Msg("store read failed")
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// writeFailed logs a write fault and returns it wrapped with the operation name.
// ErrNotFound and ErrConflict pass through unlogged; they are caller outcomes.
func writeFailed(op string, gameID int64, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Error().Err(err).Str("op", op).Int64("gameId", gameID).Msg("store write failed")
	return fmt.Errorf("%s: %w", op, err)
}
