package docstore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	c.hits++
	return b, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mapCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	cache := newMapCache()
	s := NewCachedStore(mem, cache, "test:", time.Minute)

	require.NoError(t, s.SetMerge(ctx, "skills/a", map[string]any{"title": "A", "order": 1}))

	docs, err := s.Query(ctx, "skills", QueryOpts{OrderBy: "order"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 0, cache.hits)

	docs, err = s.Query(ctx, "skills", QueryOpts{OrderBy: "order"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, Int(docs[0].Fields, "order", 0))
}

func TestCachedStoreInvalidatesOnCatalogWrite(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	s := NewCachedStore(NewMemory(), cache, "test:", time.Minute)

	require.NoError(t, s.SetMerge(ctx, "skills/a", map[string]any{"title": "A"}))
	_, err := s.Get(ctx, "skills/a")
	require.NoError(t, err)
	require.NotEmpty(t, cache.entries)

	require.NoError(t, s.SetMerge(ctx, "skills/a", map[string]any{"title": "A2"}))
	assert.Empty(t, cache.entries)

	doc, err := s.Get(ctx, "skills/a")
	require.NoError(t, err)
	assert.Equal(t, "A2", String(doc.Fields, "title", ""))
}

func TestCachedStoreBypassesUserPaths(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	s := NewCachedStore(NewMemory(), cache, "test:", time.Minute)

	require.NoError(t, s.SetMerge(ctx, "users/u1/skillProgress/a", map[string]any{"unlocked": true}))
	_, err := s.Get(ctx, "users/u1/skillProgress/a")
	require.NoError(t, err)
	_, err = s.Query(ctx, "users/u1/skillProgress", QueryOpts{})
	require.NoError(t, err)

	assert.Equal(t, 0, cache.gets)
	assert.Empty(t, cache.entries)
}

func TestCachedStoreDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	s := NewCachedStore(NewMemory(), cache, "test:", time.Minute)

	_, err := s.Get(ctx, "skills/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, cache.entries)
}
