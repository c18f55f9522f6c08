// internal/httpserver/routes_games.go
//
// Game and round endpoints:
//   - GET    /games                      → all games (history)
//   - POST   /games                      → start a game
//   - DELETE /games                      → clear history
//   - GET    /games/incomplete           → unfinished games, newest first
//   - GET    /games/{id}                 → one game
//   - PUT    /games/{id}                 → rename groups
//   - DELETE /games/{id}                 → delete a game and its rounds
//   - POST   /games/{id}/rounds          → add a round
//   - PUT    /games/{id}/rounds/{number} → edit a round's points
//   - DELETE /rounds/{id}                → delete one round row
//
// Mutations load the game, apply the change through the aggregate and save it
// atomically. A client may send the lastUpdated it saw; a mismatch is a 409.

package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pointbattle/internal/game"
)

// gameView is a game plus the derived values the UI renders.
type gameView struct {
	*game.Game
	GroupAFullName        string       `json:"groupAFullName"`
	GroupBFullName        string       `json:"groupBFullName"`
	GroupATotal           int          `json:"groupATotal"`
	GroupBTotal           int          `json:"groupBTotal"`
	RemainingRounds       int          `json:"remainingRounds"`
	PointsNeededForGroupA int          `json:"pointsNeededForGroupA"`
	PointsNeededForGroupB int          `json:"pointsNeededForGroupB"`
	Outcome               game.Outcome `json:"outcome"`
	RecoveryInfo          string       `json:"recoveryInfo,omitempty"`
}

func viewOf(g *game.Game) gameView {
	return gameView{
		Game:                  g,
		GroupAFullName:        g.GroupAFullName(),
		GroupBFullName:        g.GroupBFullName(),
		GroupATotal:           g.GroupATotal(),
		GroupBTotal:           g.GroupBTotal(),
		RemainingRounds:       g.RemainingRounds(),
		PointsNeededForGroupA: max(g.PointsNeededForGroupA(), 0),
		PointsNeededForGroupB: max(g.PointsNeededForGroupB(), 0),
		Outcome:               g.Outcome(),
		RecoveryInfo:          g.RecoveryInfo(),
	}
}

func viewsOf(games []*game.Game) []gameView {
	out := make([]gameView, 0, len(games))
	for _, g := range games {
		out = append(out, viewOf(g))
	}
	return out
}

// groupsReq names the groups of a new or renamed game.
type groupsReq struct {
	GroupA        string     `json:"groupA"`
	GroupAMember2 string     `json:"groupAMember2"`
	GroupB        string     `json:"groupB"`
	GroupBMember2 string     `json:"groupBMember2"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
}

// pointsReq carries one round's points.
type pointsReq struct {
	GroupAPoints *int       `json:"groupAPoints"`
	GroupBPoints *int       `json:"groupBPoints"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
}

func (p pointsReq) values() (int, int, error) {
	if p.GroupAPoints == nil || p.GroupBPoints == nil {
		return 0, 0, errBadRequest
	}
	return *p.GroupAPoints, *p.GroupBPoints, nil
}

// mountGames registers the game and round routes.
func (s *Server) mountGames(r chi.Router) {
	r.Route("/games", func(r chi.Router) {
		r.Get("/", s.handleListGames)
		r.Post("/", s.handleCreateGame)
		r.Delete("/", s.handleDeleteAllGames)
		r.Get("/incomplete", s.handleListIncomplete)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Put("/", s.handleRenameGame)
			r.Delete("/", s.handleDeleteGame)
			r.Post("/rounds", s.handleAddRound)
			r.Put("/rounds/{number}", s.handleEditRound)
		})
	})
	r.Delete("/rounds/{id}", s.handleDeleteRound)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.Store.ListGames(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(games))
}

func (s *Server) handleListIncomplete(w http.ResponseWriter, r *http.Request) {
	games, err := s.Store.ListIncompleteGames(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(games))
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req groupsReq
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g := game.New(req.GroupA, req.GroupB)
	g.GroupAMember2 = strings.TrimSpace(req.GroupAMember2)
	g.GroupBMember2 = strings.TrimSpace(req.GroupBMember2)
	if err := g.ValidateGroups(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.Store.SaveGameAtomically(r.Context(), g); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.Info().Int64("gameId", g.ID).Str("groupA", g.GroupAFullName()).Str("groupB", g.GroupBFullName()).Msg("game created")
	writeJSON(w, http.StatusCreated, viewOf(g))
}

func (s *Server) handleDeleteAllGames(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteAllGames(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.Info().Msg("all games deleted")
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.loadGame(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

// handleRenameGame updates group names. Blank primary names keep the
// current ones; secondary members may be cleared.
func (s *Server) handleRenameGame(w http.ResponseWriter, r *http.Request) {
	var req groupsReq
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, req.LastUpdated, http.StatusOK, func(g *game.Game) error {
		if v := strings.TrimSpace(req.GroupA); v != "" {
			g.GroupA = v
		}
		if v := strings.TrimSpace(req.GroupB); v != "" {
			g.GroupB = v
		}
		g.GroupAMember2 = strings.TrimSpace(req.GroupAMember2)
		g.GroupBMember2 = strings.TrimSpace(req.GroupBMember2)
		return g.ValidateGroups()
	})
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Store.DeleteGame(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.Info().Int64("gameId", id).Msg("game deleted")
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddRound(w http.ResponseWriter, r *http.Request) {
	var req pointsReq
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, b, err := req.values()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, req.LastUpdated, http.StatusCreated, func(g *game.Game) error {
		_, err := g.AddRound(a, b)
		return err
	})
}

func (s *Server) handleEditRound(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		s.writeError(w, r, errBadRequest)
		return
	}
	var req pointsReq
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, b, err := req.values()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, req.LastUpdated, http.StatusOK, func(g *game.Game) error {
		return g.EditRound(number, a, b)
	})
}

func (s *Server) handleDeleteRound(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Store.DeleteRound(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ------------------------------- helpers -----------------------------------

func (s *Server) loadGame(r *http.Request) (*game.Game, error) {
	id, err := int64Param(r, "id")
	if err != nil {
		return nil, err
	}
	return s.Store.GetGame(r.Context(), id)
}

// mutate loads the game, applies fn and saves atomically.
// seen, when set, replaces the loaded version so the store rejects stale edits.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, seen *time.Time, status int, fn func(*game.Game) error) {
	g, err := s.loadGame(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if seen != nil {
		g.LastUpdated = *seen
	}
	wasCompleted := g.IsCompleted
	if err := fn(g); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.Store.SaveGameAtomically(r.Context(), g); err != nil {
		s.writeError(w, r, err)
		return
	}
	if g.IsCompleted && !wasCompleted {
		log.Info().Int64("gameId", g.ID).Str("winner", g.Winner).Str("outcome", string(g.Outcome())).Msg("game completed")
	}
	writeJSON(w, status, viewOf(g))
}
