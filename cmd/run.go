package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/config"
	"github.com/dex/lingbook/internal/docstore"
	"github.com/dex/lingbook/internal/identity"
	"github.com/dex/lingbook/internal/llm"
	"github.com/dex/lingbook/internal/seed"
	"github.com/dex/lingbook/internal/speech"
)

// runtime is what every command that touches data needs: configuration,
// a logger and an open store.
type runtime struct {
	cfg     config.Config
	logger  *slog.Logger
	store   docstore.Store
	closers []io.Closer
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB, _ = flags.GetString("db")
	}
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("user") {
		cfg.User, _ = flags.GetString("user")
		// An explicit user beats a token from the environment.
		cfg.Token = ""
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	return cfg, nil
}

// openRuntime loads the configuration and opens the store. The TUI owns the
// terminal, so with tui set logs always go to the log file; otherwise they go
// to stderr at warn and above unless --log-file is given.
func openRuntime(cmd *cobra.Command, tui bool) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg}

	if tui || cfg.LogFile != "" {
		logger, closer, err := cfg.OpenLogFile()
		if err != nil {
			return nil, err
		}
		rt.logger = logger
		rt.closers = append(rt.closers, closer)
	} else {
		level := max(cfg.Level(), slog.LevelWarn)
		rt.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	opts, err := cfg.StoreOptions(rt.logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	store, err := docstore.Open(cmd.Context(), opts)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.store = store
	rt.closers = append([]io.Closer{store}, rt.closers...)
	return rt, nil
}

// Close releases the store and the log file.
func (r *runtime) Close() {
	for _, c := range r.closers {
		_ = c.Close()
	}
	r.closers = nil
}

func (r *runtime) identity() identity.Provider {
	return r.cfg.Identity()
}

// requireUser returns the signed-in user or an error telling how to sign in.
func (r *runtime) requireUser(ctx context.Context) (identity.User, error) {
	u, err := r.identity().CurrentUser(ctx)
	if errors.Is(err, identity.ErrNotSignedIn) {
		return u, fmt.Errorf("%w: run `lingbook login` or pass --user", err)
	}
	return u, err
}

// ensureCatalog seeds the starter catalog into an empty store.
func (r *runtime) ensureCatalog(ctx context.Context) error {
	v, err := seed.StoredVersion(ctx, r.store)
	if err != nil || v != "" {
		return err
	}
	f, err := seed.Starter()
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, r.store, f, false)
	if err != nil {
		return fmt.Errorf("seed starter catalog: %w", err)
	}
	r.logger.Info("seeded starter catalog", "version", res.Version, "documents", res.Documents)
	return nil
}

// provider builds the configured LLM provider with request logging.
func (r *runtime) provider(ctx context.Context) (llm.Provider, error) {
	cfg := r.cfg.LLM
	cfg.Discover()
	p, err := llm.NewProvider(ctx, cfg, llm.NewEventLog(r.store), r.logger)
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	return p, nil
}

// speaker returns the Google TTS speaker when a key is configured.
func (r *runtime) speaker() speech.Speaker {
	if r.cfg.TTSKey == "" {
		return speech.Nop{}
	}
	var player speech.Player
	if c, ok := speech.ParseCommand(r.cfg.Player); ok {
		player = c
	}
	dir, err := r.cfg.AudioCacheDir()
	if err != nil {
		r.logger.Warn("speech disabled", "op", "speech.init", "err", err)
		return speech.Nop{}
	}
	g, err := speech.NewGoogle(r.cfg.TTSKey, dir, player)
	if err != nil {
		r.logger.Warn("speech disabled", "op", "speech.init", "err", err)
		return speech.Nop{}
	}
	return g
}
