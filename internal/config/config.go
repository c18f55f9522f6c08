// internal/config/config.go
//
// Process configuration.
// Responsibilities:
//   - Load a .env file when present (existing variables win).
//   - Parse environment variables into a typed Config with defaults.
//   - Derive file locations inside the data directory.
//
// Environment variables:
//   POINTBATTLE_DATA_DIR   data directory (default ./data)
//   POINTBATTLE_DB_FILE    database file name (default pointbattle.db)
//   POINTBATTLE_PREFS_FILE preference file name (default preferences.yaml)
//   BIND_HOST / PORT       UI bridge address (default 127.0.0.1:5175)
//   LOG_LEVEL / LOG_FORMAT zerolog level and json|console output
//   TOKEN_SECRET           HS256 key for bridge tokens (random per launch when empty)
//   TOKEN_TTL              bridge token lifetime (default 24h)
//   COOKIE_NAME            cookie carrying the bridge token (default pointbattle_token)
//   CLIENT_ORIGIN          origin allowed by CORS when the UI is served elsewhere

package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the resolved process configuration.
type Config struct {
	DataDir   string `env:"POINTBATTLE_DATA_DIR" envDefault:"./data"`
	DBFile    string `env:"POINTBATTLE_DB_FILE" envDefault:"pointbattle.db"`
	PrefsFile string `env:"POINTBATTLE_PREFS_FILE" envDefault:"preferences.yaml"`

	BindHost     string `env:"BIND_HOST" envDefault:"127.0.0.1"`
	Port         string `env:"PORT" envDefault:"5175"`
	ClientOrigin string `env:"CLIENT_ORIGIN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	TokenSecret string        `env:"TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	CookieName  string        `env:"COOKIE_NAME" envDefault:"pointbattle_token"`
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load reads the environment into a Config.
// An empty TOKEN_SECRET is replaced by a random one, so tokens never outlive
// the process unless a secret is configured.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TokenSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.TokenSecret = secret
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// DatabasePath is the SQLite file inside the data directory.
func (c Config) DatabasePath() string { return filepath.Join(c.DataDir, c.DBFile) }

// PreferencesPath is the preference file inside the data directory.
func (c Config) PreferencesPath() string { return filepath.Join(c.DataDir, c.PrefsFile) }

// Addr is the host:port the UI bridge listens on.
func (c Config) Addr() string { return net.JoinHostPort(c.BindHost, c.Port) }

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
