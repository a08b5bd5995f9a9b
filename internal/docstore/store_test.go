package docstore

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := OpenSQLite(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs fn against every backend that needs no external server.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openTestSQLite(t)) })
}

func TestGetMissing(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), "skills/nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSetMergeKeepsUnrelatedFields(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		path := "users/u1/skillProgress/greetings"

		require.NoError(t, s.SetMerge(ctx, path, map[string]any{
			"unlocked": true, "progress": 0, "currentLessonIndex": 0,
		}))
		require.NoError(t, s.SetMerge(ctx, path, map[string]any{"currentLessonIndex": 3}))

		doc, err := s.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "greetings", doc.ID)
		assert.True(t, Bool(doc.Fields, "unlocked", false))
		assert.Equal(t, 0, Int(doc.Fields, "progress", -1))
		assert.Equal(t, 3, Int(doc.Fields, "currentLessonIndex", -1))
	})
}

func TestSetMergeNestedMaps(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		path := "userProgress/u1"

		require.NoError(t, s.SetMerge(ctx, path, map[string]any{
			"vocabularyProgress": map[string]any{"w1": map[string]any{"isLearned": true}},
		}))
		require.NoError(t, s.SetMerge(ctx, path, map[string]any{
			"vocabularyProgress": map[string]any{"w2": map[string]any{"isLearned": true}},
		}))

		doc, err := s.Get(ctx, path)
		require.NoError(t, err)
		vp := Map(doc.Fields, "vocabularyProgress")
		assert.Len(t, vp, 2)
	})
}

func TestQueryOrderFilterLimit(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Batch(ctx, []Write{
			Merge("skills/c", map[string]any{"title": "C", "order": 3}),
			Merge("skills/a", map[string]any{"title": "A", "order": 1}),
			Merge("skills/z", map[string]any{"title": "Z"}),
			Merge("skills/b", map[string]any{"title": "B", "order": 2}),
			Merge("skills/a/lessons/l1", map[string]any{"order": 1}),
		}))

		docs, err := s.Query(ctx, "skills", QueryOpts{OrderBy: "order"})
		require.NoError(t, err)
		require.Len(t, docs, 4, "subcollection documents must not be listed")
		var ids []string
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		assert.Equal(t, []string{"a", "b", "c", "z"}, ids)

		docs, err = s.Query(ctx, "skills", QueryOpts{OrderBy: "order", Limit: 1})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "a", docs[0].ID)

		docs, err = s.Query(ctx, "skills", QueryOpts{Where: []Filter{{Field: "title", Value: "B"}}})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "b", docs[0].ID)

		docs, err = s.Query(ctx, "skills", QueryOpts{IDs: []string{"c", "z", "missing"}})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})
}

func TestQueryOrderMixedTypes(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Batch(ctx, []Write{
			Merge("words/d", map[string]any{"rank": "x"}),
			Merge("words/b", map[string]any{"rank": 2}),
			Merge("words/e", map[string]any{"title": "E"}),
			Merge("words/c", map[string]any{"rank": "a"}),
			Merge("words/a", map[string]any{"rank": 1}),
		}))

		docs, err := s.Query(ctx, "words", QueryOpts{OrderBy: "rank"})
		require.NoError(t, err)
		var ids []string
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
	})
}

func TestCompareValuesIsAntisymmetric(t *testing.T) {
	values := []any{nil, 1, 2.5, int64(-3), "a", "b", true}
	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, compareValues(a, b), -compareValues(b, a), "compare(%v, %v)", a, b)
		}
	}
	assert.Equal(t, -1, compareValues(3, "a"))
	assert.Equal(t, 1, compareValues("a", 3))
}

func TestQueryBoolFilter(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.SetMerge(ctx, "users/u1/skillProgress/a", map[string]any{"unlocked": true}))
		require.NoError(t, s.SetMerge(ctx, "users/u1/skillProgress/b", map[string]any{"unlocked": false}))

		docs, err := s.Query(ctx, "users/u1/skillProgress", QueryOpts{
			Where: []Filter{{Field: "unlocked", Value: true}},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "a", docs[0].ID)
	})
}

func TestBatchDeleteAndCollections(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Batch(ctx, []Write{
			Merge("skills/a", map[string]any{"title": "A"}),
			Merge("skills/a/lessons/l1", map[string]any{"title": "L1"}),
			Merge("skills/a/lessons/l1/questions/q1", map[string]any{"sentence": "hi"}),
			Merge("vocabulary/w1", map[string]any{"word": "hola"}),
		}))

		require.NoError(t, s.Delete(ctx, "vocabulary/w1"))
		_, err := s.Get(ctx, "vocabulary/w1")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Delete(ctx, "vocabulary/never"), "deleting a missing doc is not an error")

		require.NoError(t, s.DeleteCollection(ctx, "skills"))
		_, err = s.Get(ctx, "skills/a/lessons/l1/questions/q1")
		assert.ErrorIs(t, err, ErrNotFound)
		docs, err := s.Query(ctx, "skills", QueryOpts{})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestInvalidPaths(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.Get(ctx, "skills")
		assert.ErrorIs(t, err, ErrInvalidPath)
		_, err = s.Query(ctx, "skills/a", QueryOpts{})
		assert.ErrorIs(t, err, ErrInvalidPath)
		assert.ErrorIs(t, s.SetMerge(ctx, "skills//x", nil), ErrInvalidPath)
		_, err = s.Query(ctx, "skills", QueryOpts{OrderBy: "order'); DROP TABLE documents; --"})
		assert.Error(t, err)
	})
}

func TestBatchIsAtomicOnInvalidPath(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		err := s.Batch(ctx, []Write{
			Merge("skills/a", map[string]any{"title": "A"}),
			Merge("skills", map[string]any{"title": "bad"}),
		})
		require.Error(t, err)
		_, err = s.Get(ctx, "skills/a")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	require.NoError(t, s.SetMerge(ctx, "skills/a", map[string]any{"title": "A"}))

	doc, err := s.Get(ctx, "skills/a")
	require.NoError(t, err)
	doc.Fields["title"] = "mutated"

	doc, err = s.Get(ctx, "skills/a")
	require.NoError(t, err)
	assert.Equal(t, "A", doc.Fields["title"])
}

func TestSQLitePragmas(t *testing.T) {
	s := openTestSQLite(t)

	var fk string
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, "1", fk)
}

func TestSplitDoc(t *testing.T) {
	tests := []struct {
		path       string
		collection string
		id         string
		wantErr    bool
	}{
		{"skills/a", "skills", "a", false},
		{"skills/a/lessons/l1", "skills/a/lessons", "l1", false},
		{"skills", "", "", true},
		{"", "", "", true},
		{"skills/", "", "", true},
	}
	for _, tt := range tests {
		c, id, err := SplitDoc(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.collection, c)
		assert.Equal(t, tt.id, id)
	}
}

func TestLenientGetters(t *testing.T) {
	fields := map[string]any{
		"s":     "x",
		"n":     float64(4),
		"n32":   int32(7),
		"b":     true,
		"list":  []any{"a", 1, "b"},
		"wrong": 12,
	}
	assert.Equal(t, "x", String(fields, "s", "d"))
	assert.Equal(t, "d", String(fields, "wrong", "d"))
	assert.Equal(t, 4, Int(fields, "n", 0))
	assert.Equal(t, 7, Int(fields, "n32", 0))
	assert.Equal(t, 9, Int(fields, "s", 9))
	assert.True(t, Bool(fields, "b", false))
	assert.Equal(t, []string{"a", "b"}, Strings(fields, "list"))
	assert.Empty(t, Strings(fields, "missing"))
	assert.Equal(t, []string{"x"}, StringList(fields, "s"))
	assert.Equal(t, []string{"a", "b"}, StringList(fields, "list"))
	assert.Empty(t, StringList(fields, "wrong"))
	assert.Nil(t, OptString(fields, "missing"))
}
