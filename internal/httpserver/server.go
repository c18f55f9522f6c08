// internal/httpserver/server.go
//
// Loopback HTTP bridge between the web view and the PointBattle core.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     request logging).
//   - Public endpoint: "/health".
//   - Everything else requires a bridge token bound to the current launch.
//   - Error mapping from core errors to HTTP status codes and localized messages.
//
// Notes:
//   - Handlers load a fresh aggregate per request, mutate it and save it
//     atomically; a stale client copy surfaces as 409 via ErrConflict.
//   - CORS is only enabled when a client origin is configured.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pointbattle/internal/game"
	"github.com/robalobadob/pointbattle/internal/locale"
	"github.com/robalobadob/pointbattle/internal/recovery"
	"github.com/robalobadob/pointbattle/internal/session"
	"github.com/robalobadob/pointbattle/internal/store"
)

// Preferences is the part of the preference store the bridge exposes.
type Preferences interface {
	GetBool(key string, def bool) bool
	SetBool(key string, value bool) error
}

// Deps are the collaborators the bridge serves.
type Deps struct {
	Store    store.Store
	Session  *session.State
	Recovery *recovery.Coordinator
	Locale   *locale.Service
	Prefs    Preferences
	Tokens   *Tokens

	ClientOrigin   string        // CORS origin; empty disables CORS
	RequestTimeout time.Duration // default 10s
}

// Server bundles the router and its dependencies.
type Server struct {
	r *chi.Mux
	Deps
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 10 * time.Second
	}
	s := &Server{r: chi.NewRouter(), Deps: d}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // zerolog access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(d.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsForOrigin(d.ClientOrigin))   // single-origin CORS

	// --- diagnostics ---
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "session": s.Session.ID()})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(s.Tokens.requireAuth(s.Session))
		s.mountGames(r)
		s.mountApp(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router (useful for tests and custom http.Server setups).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsForOrigin enables credentialed CORS for a single origin.
func corsForOrigin(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if origin == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("requestId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ responses ----------------------------------

var errBadRequest = errors.New("bad request")

// apiError is the JSON error body. Message is localized for display.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// writeError maps core errors to a status code and a localized message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, key := http.StatusInternalServerError, "internal", "error.internal"
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, game.ErrRoundNotFound):
		status, code, key = http.StatusNotFound, "not_found", "error.not_found"
	case errors.Is(err, game.ErrInvalidPoints):
		status, code, key = http.StatusBadRequest, "invalid_points", "error.invalid_points"
	case errors.Is(err, game.ErrSameGroups):
		status, code, key = http.StatusBadRequest, "duplicate_groups", "error.duplicate_groups"
	case errors.Is(err, errBadRequest):
		status, code, key = http.StatusBadRequest, "bad_request", "error.bad_request"
	case errors.Is(err, game.ErrRoundLimit):
		status, code, key = http.StatusConflict, "round_limit", "error.round_limit"
	case errors.Is(err, game.ErrGameCompleted), errors.Is(err, recovery.ErrNotRecoverable):
		status, code, key = http.StatusConflict, "game_completed", "error.game_completed"
	case errors.Is(err, store.ErrConflict):
		status, code, key = http.StatusConflict, "conflict", "error.conflict"
	case errors.Is(err, store.ErrUnavailable):
		key = "error.save_failed"
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("requestId", chimw.GetReqID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, apiError{Error: code, Message: s.Locale.T(key)})
}

// decodeJSON reads the request body into v; malformed bodies are errBadRequest.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// int64Param parses a numeric path parameter.
func int64Param(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, errBadRequest
	}
	return v, nil
}
