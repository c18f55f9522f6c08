// internal/httpserver/routes_app.go
//
// Application endpoints around the game list:
//   - GET  /players                   → distinct player names (autocomplete)
//   - GET  /stats/players             → per-player wins/losses/ties
//   - GET  /recovery                  → once-per-launch recovery check
//   - POST /recovery/{id}/resume      → resume the candidate
//   - POST /recovery/{id}/discard     → delete the candidate
//   - GET  /session                   → launch state
//   - GET  /locale, PUT /locale       → current language and direction
//   - GET  /locale/messages           → message map for the current language
//   - GET  /preferences               → stored UI preferences
//   - PUT  /preferences/dark-mode     → toggle dark mode

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/pointbattle/internal/game"
	"github.com/robalobadob/pointbattle/internal/locale"
	"github.com/robalobadob/pointbattle/internal/prefs"
	"github.com/robalobadob/pointbattle/internal/recovery"
	"github.com/robalobadob/pointbattle/internal/stats"
)

// recoveryRes answers GET /recovery. Game is nil when there is nothing to offer.
type recoveryRes struct {
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"` // "none" | "already_checked"
	Game      *gameView `json:"game,omitempty"`
	Progress  string    `json:"progress,omitempty"`
}

// localeRes answers GET/PUT /locale.
type localeRes struct {
	Current   locale.Language   `json:"current"`
	Direction string            `json:"direction"`
	Supported []locale.Language `json:"supported"`
}

type setLocaleReq struct {
	Code string `json:"code"`
}

type preferencesRes struct {
	AppLanguage string `json:"appLanguage"`
	DarkMode    bool   `json:"darkMode"`
}

type darkModeReq struct {
	Enabled *bool `json:"enabled"`
}

// mountApp registers the non-game routes.
func (s *Server) mountApp(r chi.Router) {
	r.Get("/players", s.handlePlayers)
	r.Get("/stats/players", s.handlePlayerStats)

	r.Route("/recovery", func(r chi.Router) {
		r.Get("/", s.handleRecoveryCheck)
		r.Post("/{id}/resume", s.handleRecoveryResume)
		r.Post("/{id}/discard", s.handleRecoveryDiscard)
	})

	r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Session.Snapshot())
	})

	r.Route("/locale", func(r chi.Router) {
		r.Get("/", s.handleGetLocale)
		r.Put("/", s.handleSetLocale)
		r.Get("/messages", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.Locale.Messages())
		})
	})

	r.Route("/preferences", func(r chi.Router) {
		r.Get("/", s.handleGetPreferences)
		r.Put("/dark-mode", s.handleSetDarkMode)
	})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	names, err := s.Store.ListDistinctPlayerNames(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	rows, err := stats.Players(r.Context(), s.Store)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleRecoveryCheck(w http.ResponseWriter, r *http.Request) {
	g, err := s.Recovery.Check(r.Context())
	switch {
	case errors.Is(err, recovery.ErrNoCandidate):
		writeJSON(w, http.StatusOK, recoveryRes{Reason: "none"})
		return
	case errors.Is(err, recovery.ErrAlreadyChecked):
		writeJSON(w, http.StatusOK, recoveryRes{Reason: "already_checked"})
		return
	case err != nil:
		s.writeError(w, r, err)
		return
	}
	v := viewOf(g)
	writeJSON(w, http.StatusOK, recoveryRes{
		Available: true,
		Game:      &v,
		Progress:  s.Locale.Format("recovery.progress", len(g.Rounds), game.MaxRounds, g.GroupATotal(), g.GroupBTotal()),
	})
}

func (s *Server) handleRecoveryResume(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.Recovery.Resume(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

func (s *Server) handleRecoveryDiscard(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Recovery.Discard(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) localeState() localeRes {
	return localeRes{
		Current:   s.Locale.Current(),
		Direction: s.Locale.Direction(),
		Supported: s.Locale.SupportedLanguages(),
	}
}

func (s *Server) handleGetLocale(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.localeState())
}

// handleSetLocale switches language. Unknown codes fall back to English
// rather than failing, matching the startup behavior.
func (s *Server) handleSetLocale(w http.ResponseWriter, r *http.Request) {
	var req setLocaleReq
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Locale.SetLanguage(req.Code)
	writeJSON(w, http.StatusOK, s.localeState())
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, preferencesRes{
		AppLanguage: s.Locale.Current().Code,
		DarkMode:    s.Prefs.GetBool(prefs.KeyDarkMode, false),
	})
}

func (s *Server) handleSetDarkMode(w http.ResponseWriter, r *http.Request) {
	var req darkModeReq
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Enabled == nil {
		s.writeError(w, r, errBadRequest)
		return
	}
	if err := s.Prefs.SetBool(prefs.KeyDarkMode, *req.Enabled); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleGetPreferences(w, r)
}
