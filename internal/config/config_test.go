package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/dex/lingbook/internal/identity"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, 24*time.Hour, cfg.ReminderDelay)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "en-US", cfg.Language)
	assert.Equal(t, "lingbook", cfg.MongoDatabase)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadPrefixedValues(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"LINGBOOK_BACKEND":          " Mongo ",
		"LINGBOOK_USER":             "learner-1",
		"LINGBOOK_REMINDER_DELAY":   "90m",
		"LINGBOOK_LOG_LEVEL":        "debug",
		"LINGBOOK_LLM_PROVIDER":     "mock",
		"LINGBOOK_LLM_OPENAI_MODEL": "gpt-x",
		"BACKEND":                   "memory",
	})
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.Backend)
	assert.Equal(t, "learner-1", cfg.User)
	assert.Equal(t, 90*time.Minute, cfg.ReminderDelay)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "gpt-x", cfg.LLM.OpenAI.Model)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	_, err := LoadFrom(map[string]string{"LINGBOOK_CACHE_TTL": "soon"})
	assert.Error(t, err)
}

func TestDBPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	p, err := Config{}.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lingbook", "lingbook.db"), p)
	assert.DirExists(t, filepath.Join(dir, "lingbook"))

	explicit := filepath.Join(dir, "custom", "my.db")
	p, err = Config{DB: explicit}.DBPath()
	require.NoError(t, err)
	assert.Equal(t, explicit, p)
	assert.DirExists(t, filepath.Join(dir, "custom"))
}

func TestLogAndCachePaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	p, err := Config{}.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state", "lingbook", "lingbook.log"), p)

	c, err := Config{}.AudioCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache", "lingbook", "tts"), c)

	logger, closer, err := Config{LogFile: filepath.Join(dir, "x.log")}.OpenLogFile()
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())
	assert.FileExists(t, filepath.Join(dir, "x.log"))
}

func TestStoreOptions(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	opts, err := Config{Backend: docstore.BackendMemory, RedisAddr: "localhost:6379"}.StoreOptions(nil)
	require.NoError(t, err)
	assert.Empty(t, opts.SQLitePath)
	assert.Equal(t, "localhost:6379", opts.RedisAddr)

	opts, err = Config{Backend: docstore.BackendSQLite}.StoreOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, "lingbook.db", filepath.Base(opts.SQLitePath))
}

func TestIdentity(t *testing.T) {
	ctx := context.Background()

	u, err := Config{User: "learner-1"}.Identity().CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "learner-1", u.ID)

	_, err = Config{}.Identity().CurrentUser(ctx)
	assert.ErrorIs(t, err, identity.ErrNotSignedIn)

	secret := "s3cret"
	tok, err := identity.Issue(identity.User{ID: "tok-user"}, []byte(secret), time.Hour, time.Now())
	require.NoError(t, err)
	u, err = Config{User: "ignored", Token: tok, TokenSecret: secret}.Identity().CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-user", u.ID)
}
