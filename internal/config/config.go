package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds the client configuration, read from POKANDO_* environment
// variables.
type Config struct {
	APIURL             string        `env:"POKANDO_API_URL"              envDefault:"http://localhost:8080"`
	DelegatedLoginPath string        `env:"POKANDO_DELEGATED_LOGIN_PATH" envDefault:"/oauth2/authorization/google"`
	StateDir           string        `env:"POKANDO_STATE_DIR"`
	SessionStore       string        `env:"POKANDO_SESSION_STORE"        envDefault:"file"`
	RequestTimeout     time.Duration `env:"POKANDO_REQUEST_TIMEOUT"      envDefault:"30s"`
	CallbackAddr       string        `env:"POKANDO_CALLBACK_ADDR"        envDefault:"127.0.0.1:3000"`
	CallbackTimeout    time.Duration `env:"POKANDO_CALLBACK_TIMEOUT"     envDefault:"2m"`

	// Token, when set, overrides any persisted session for this process.
	Token string `env:"POKANDO_TOKEN"`
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the API URL, store kind and durations.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: POKANDO_API_URL %q is not an http(s) URL", c.APIURL)
	}
	switch c.SessionStore {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("config: POKANDO_SESSION_STORE %q: want %s, %s or %s", c.SessionStore, StoreFile, StoreSQLite, StoreMemory)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: POKANDO_REQUEST_TIMEOUT must be positive")
	}
	if c.CallbackTimeout <= 0 {
		return fmt.Errorf("config: POKANDO_CALLBACK_TIMEOUT must be positive")
	}
	return nil
}

// SessionPath is the file store location.
func (c Config) SessionPath() string {
	return filepath.Join(c.StateDir, "session.json")
}

// DBPath is the sqlite store location.
func (c Config) DBPath() string {
	return filepath.Join(c.StateDir, "state.db")
}

// LogPath is where the debug log is written.
func (c Config) LogPath() string {
	return filepath.Join(c.StateDir, "debug.log")
}

// defaultStateDir returns ~/.pokando, or ./.pokando when no home is known.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pokando"
	}
	return filepath.Join(home, ".pokando")
}
