package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte-oriented key/value cache with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// RedisCache implements Cache on a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at addr.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// DeletePrefix removes every key starting with prefix.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedStore is a read-through cache in front of a Store. Only documents
// under the configured root collections are cached; writes touching them
// drop the whole cache namespace. Everything else passes straight through.
type CachedStore struct {
	Store
	cache  Cache
	ttl    time.Duration
	prefix string
	roots  []string
	logger *slog.Logger
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

// WithCacheRoots sets the root collections whose documents are cached.
func WithCacheRoots(roots ...string) CacheOption {
	return func(c *CachedStore) { c.roots = roots }
}

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *CachedStore) { c.logger = l }
}

// NewCachedStore wraps store with cache. Keys are namespaced under prefix.
func NewCachedStore(store Store, cache Cache, prefix string, ttl time.Duration, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		Store:  store,
		cache:  cache,
		ttl:    ttl,
		prefix: prefix,
		roots:  []string{"skills", "vocabulary"},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *CachedStore) Get(ctx context.Context, path string) (*Doc, error) {
	if !c.cached(path) {
		return c.Store.Get(ctx, path)
	}

	key := c.prefix + "get:" + path
	var doc Doc
	if c.lookup(ctx, key, &doc) {
		return &doc, nil
	}

	d, err := c.Store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, d)
	return d, nil
}

func (c *CachedStore) Query(ctx context.Context, collection string, opts QueryOpts) ([]Doc, error) {
	if !c.cached(collection) {
		return c.Store.Query(ctx, collection, opts)
	}

	optsKey, err := json.Marshal(opts)
	if err != nil {
		return c.Store.Query(ctx, collection, opts)
	}
	key := c.prefix + "query:" + collection + ":" + string(optsKey)

	var docs []Doc
	if c.lookup(ctx, key, &docs) {
		return docs, nil
	}

	docs, err = c.Store.Query(ctx, collection, opts)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, docs)
	return docs, nil
}

func (c *CachedStore) SetMerge(ctx context.Context, path string, fields map[string]any) error {
	err := c.Store.SetMerge(ctx, path, fields)
	c.invalidate(ctx, path)
	return err
}

func (c *CachedStore) Batch(ctx context.Context, writes []Write) error {
	err := c.Store.Batch(ctx, writes)
	for _, w := range writes {
		if c.cached(w.Path) {
			c.invalidate(ctx, w.Path)
			break
		}
	}
	return err
}

func (c *CachedStore) Delete(ctx context.Context, path string) error {
	err := c.Store.Delete(ctx, path)
	c.invalidate(ctx, path)
	return err
}

func (c *CachedStore) DeleteCollection(ctx context.Context, collection string) error {
	err := c.Store.DeleteCollection(ctx, collection)
	c.invalidate(ctx, collection)
	return err
}

// Close closes the wrapped store and the cache when it holds a connection.
func (c *CachedStore) Close() error {
	err := c.Store.Close()
	if cl, ok := c.cache.(io.Closer); ok {
		err = errors.Join(err, cl.Close())
	}
	return err
}

func (c *CachedStore) cached(path string) bool {
	root, _, _ := strings.Cut(path, "/")
	for _, r := range c.roots {
		if r == root {
			return true
		}
	}
	return false
}

func (c *CachedStore) lookup(ctx context.Context, key string, v any) bool {
	b, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("cache read failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func (c *CachedStore) fill(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "err", err)
	}
}

func (c *CachedStore) invalidate(ctx context.Context, path string) {
	if !c.cached(path) {
		return
	}
	if err := c.cache.DeletePrefix(ctx, c.prefix); err != nil {
		c.logger.Warn("cache invalidation failed", "path", path, "err", err)
	}
}
