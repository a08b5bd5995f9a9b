package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/dex/lingbook/internal/identity"
	"github.com/dex/lingbook/internal/llm"
)

// Prefix is prepended to every environment variable name.
const Prefix = "LINGBOOK_"

const appDir = "lingbook"

// Config is the runtime configuration, read from LINGBOOK_* variables.
type Config struct {
	Backend string `env:"BACKEND" envDefault:"sqlite"`
	DB      string `env:"DB"`

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"lingbook"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	AMQPURI      string `env:"AMQP_URI"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"lingbook.reminders"`

	User        string `env:"USER"`
	Token       string `env:"TOKEN"`
	TokenSecret string `env:"TOKEN_SECRET"`

	TTSKey      string `env:"TTS_API_KEY"`
	TTSCacheDir string `env:"TTS_CACHE_DIR"`
	Player      string `env:"PLAYER" envDefault:"mpv --no-video --really-quiet"`
	Language    string `env:"LANGUAGE" envDefault:"en-US"`

	ReminderDelay time.Duration `env:"REMINDER_DELAY" envDefault:"24h"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	LLM llm.Config `envPrefix:"LLM_"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads the configuration from environ, or from the process
// environment when environ is nil.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: Prefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, nil
}

// DBPath resolves the SQLite file in priority order:
// 1. --db flag or LINGBOOK_DB
// 2. $XDG_DATA_HOME/lingbook/lingbook.db
// 3. ~/.local/share/lingbook/lingbook.db
// The parent directory is created.
func (c Config) DBPath() (string, error) {
	if c.DB != "" {
		return c.DB, ensureDir(c.DB)
	}
	dataHome, err := xdgDir("XDG_DATA_HOME", ".local", "share")
	if err != nil {
		return "", err
	}
	p := filepath.Join(dataHome, appDir, appDir+".db")
	return p, ensureDir(p)
}

// LogPath is the TUI log file, under $XDG_STATE_HOME by default.
func (c Config) LogPath() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, ensureDir(c.LogFile)
	}
	state, err := xdgDir("XDG_STATE_HOME", ".local", "state")
	if err != nil {
		return "", err
	}
	p := filepath.Join(state, appDir, appDir+".log")
	return p, ensureDir(p)
}

// AudioCacheDir is where synthesized speech is kept.
func (c Config) AudioCacheDir() (string, error) {
	if c.TTSCacheDir != "" {
		return c.TTSCacheDir, nil
	}
	cache, err := xdgDir("XDG_CACHE_HOME", ".cache")
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, appDir, "tts"), nil
}

// StoreOptions maps the configuration onto docstore.Open.
func (c Config) StoreOptions(logger *slog.Logger) (docstore.Options, error) {
	opts := docstore.Options{
		Backend:       c.Backend,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		CacheTTL:      c.CacheTTL,
		Logger:        logger,
	}
	if c.Backend == docstore.BackendSQLite || c.Backend == "" {
		p, err := c.DBPath()
		if err != nil {
			return opts, fmt.Errorf("resolve DB path: %w", err)
		}
		opts.SQLitePath = p
	}
	return opts, nil
}

// Identity picks the user source: a signed token wins over a plain user id.
func (c Config) Identity() identity.Provider {
	if c.Token != "" {
		return identity.NewToken(c.Token, c.TokenSecret)
	}
	return identity.Static{User: identity.User{ID: c.User}}
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger returns a JSON logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// OpenLogFile opens LogPath for appending and returns a logger on it.
func (c Config) OpenLogFile() (*slog.Logger, io.Closer, error) {
	p, err := c.LogPath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve log path: %w", err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return c.NewLogger(f), f, nil
}

func xdgDir(envVar string, fallback ...string) (string, error) {
	if d := os.Getenv(envVar); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
