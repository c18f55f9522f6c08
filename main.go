// main.go
//
// PointBattle process entry point.
// Responsibilities:
//   - Load .env + environment configuration.
//   - Configure the global zerolog logger.
//   - Open the SQLite store, preferences and localization.
//   - Create the per-launch session state and recovery coordinator.
//   - Serve the loopback UI bridge until interrupted.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pointbattle/internal/config"
	"github.com/robalobadob/pointbattle/internal/httpserver"
	"github.com/robalobadob/pointbattle/internal/locale"
	"github.com/robalobadob/pointbattle/internal/prefs"
	"github.com/robalobadob/pointbattle/internal/recovery"
	"github.com/robalobadob/pointbattle/internal/session"
	"github.com/robalobadob/pointbattle/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("could not load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := store.NewSQLiteStore(cfg.DatabasePath())
	defer func() { _ = db.Close() }()
	// Every store call initializes on demand, so a failure here is retried
	// on the first request instead of aborting the launch.
	if err := db.Initialize(ctx); err != nil {
		log.Error().Err(err).Msg("store not ready, will retry on first use")
	}

	p := prefs.Open(cfg.PreferencesPath())
	loc, err := locale.New(p)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load locale catalogs")
	}
	loc.Subscribe(func(l locale.Language) {
		log.Debug().Str("language", l.Code).Bool("rtl", l.RightToLeft).Msg("direction update")
	})

	sess := session.New()
	tokens := httpserver.NewTokens(cfg.TokenSecret, cfg.TokenTTL, cfg.CookieName)
	srv := httpserver.New(httpserver.Deps{
		Store:        db,
		Session:      sess,
		Recovery:     recovery.New(db, sess),
		Locale:       loc,
		Prefs:        p,
		Tokens:       tokens,
		ClientOrigin: cfg.ClientOrigin,
	})

	token, exp, err := tokens.Issue(sess.ID())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to issue bridge token")
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", cfg.Addr()).
		Str("session", sess.ID()).
		Time("startedAt", sess.StartedAt()).
		Str("db", cfg.DatabasePath()).
		Str("prefs", p.Path()).
		Str("language", loc.Current().Code).
		Time("tokenExpires", exp).
		Msg("starting pointbattle")
	// The web view opens this URL; the token moves into a cookie on first use.
	log.Info().Str("url", "http://"+cfg.Addr()+"/session?token="+token).Msg("ui bridge ready")

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("shutdown complete")
}

// setupLogger applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func setupLogger(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
