package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	SQLitePath string

	MongoURI      string
	MongoDatabase string

	// RedisAddr enables the catalog cache when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	Logger *slog.Logger
}

// Open builds the configured store, wrapped in the Redis cache when one is set.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store Store
		err   error
	)
	switch opts.Backend {
	case BackendSQLite, "":
		store, err = OpenSQLite(ctx, opts.SQLitePath)
	case BackendMongo:
		store, err = OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	case BackendMemory:
		store = NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if opts.RedisAddr == "" {
		return store, nil
	}

	cache, err := NewRedisCache(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	if err != nil {
		// The cache is an optimisation; run without it.
		logger.Warn("catalog cache disabled", "addr", opts.RedisAddr, "err", err)
		return store, nil
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return NewCachedStore(store, cache, "lingbook:", ttl, WithCacheLogger(logger)), nil
}
