package learn

import (
	"context"
	"errors"
	"testing"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSkills(t *testing.T, store docstore.Store, ids ...string) {
	t.Helper()
	var writes []docstore.Write
	for i, id := range ids {
		writes = append(writes, docstore.Merge(catalog.SkillPath(id), map[string]any{"title": id, "order": i + 1}))
	}
	require.NoError(t, store.Batch(context.Background(), writes))
}

func progressOf(t *testing.T, store docstore.Store, uid, skillID string) map[string]any {
	t.Helper()
	d, err := store.Get(context.Background(), ProgressPath(uid, skillID))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	require.NoError(t, err)
	return d.Fields
}

// failingStore fails every operation.
type failingStore struct{ docstore.Store }

var errBoom = errors.New("boom")

func (failingStore) Get(context.Context, string) (*docstore.Doc, error) { return nil, errBoom }
func (failingStore) Query(context.Context, string, docstore.QueryOpts) ([]docstore.Doc, error) {
	return nil, errBoom
}
func (failingStore) SetMerge(context.Context, string, map[string]any) error { return errBoom }
func (failingStore) Batch(context.Context, []docstore.Write) error         { return errBoom }

func TestSkillsForUserUnlocksFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedSkills(t, store, "a", "b", "c")
	repo := NewRepository(store, nil)

	skills, err := repo.SkillsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, skills, 3)
	assert.True(t, skills[0].Unlocked)
	assert.False(t, skills[1].Unlocked)
	assert.Equal(t, catalog.DefaultIcon, skills[0].Icon)

	p := progressOf(t, store, "u1", "a")
	assert.Equal(t, true, p["unlocked"])
	assert.Equal(t, 0, docstore.Int(p, "currentLessonIndex", -1))
}

func TestSkillsForUserKeepsExistingUnlock(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedSkills(t, store, "a", "b")
	require.NoError(t, store.SetMerge(ctx, ProgressPath("u1", "b"), map[string]any{"unlocked": true, "progress": 40}))
	repo := NewRepository(store, nil)

	skills, err := repo.SkillsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, skills[0].Unlocked)
	assert.True(t, skills[1].Unlocked)
	assert.Equal(t, 40, skills[1].Progress)
	assert.Nil(t, progressOf(t, store, "u1", "a"))
}

func TestSkillsForUserRequiresUser(t *testing.T) {
	_, err := NewRepository(docstore.NewMemory(), nil).SkillsForUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindUnauthenticated, le.Kind)
}

func TestRemoteFailuresAreTagged(t *testing.T) {
	repo := NewRepository(failingStore{}, nil)
	ctx := context.Background()

	_, err := repo.SkillsForUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrRemote)
	assert.ErrorIs(t, err, errBoom)

	_, err = repo.Lessons(ctx, "a")
	assert.ErrorIs(t, err, ErrRemote)

	assert.ErrorIs(t, repo.UnlockNextSkill(ctx, "u1", "a"), ErrRemote)

	// Best-effort: must not panic or surface anything.
	repo.SetResumeLessonIndex(ctx, "u1", "a", 2)
}

func TestUnlockNextSkill(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedSkills(t, store, "a", "b", "c")
	repo := NewRepository(store, nil)

	_, err := repo.SkillsForUser(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, repo.UnlockNextSkill(ctx, "u1", "a"))

	skills, err := repo.SkillsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, skills[0].Unlocked)
	assert.Equal(t, 100, skills[0].Progress)
	assert.True(t, skills[1].Unlocked)
	assert.Equal(t, 0, skills[1].Progress)
	assert.False(t, skills[2].Unlocked)
}

func TestUnlockNextSkillNoOps(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedSkills(t, store, "a", "b")
	repo := NewRepository(store, nil)

	before := store.Len()
	require.NoError(t, repo.UnlockNextSkill(ctx, "u1", "b"), "last skill")
	require.NoError(t, repo.UnlockNextSkill(ctx, "u1", "zzz"), "unknown skill")
	assert.Equal(t, before, store.Len())
}

func TestEnsureProgressInitializedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedSkills(t, store, "a", "b")
	repo := NewRepository(store, nil)

	require.NoError(t, repo.EnsureProgressInitialized(ctx, "u1"))
	require.NoError(t, store.SetMerge(ctx, ProgressPath("u1", "a"), map[string]any{"progress": 60, "currentLessonIndex": 2}))
	require.NoError(t, repo.EnsureProgressInitialized(ctx, "u1"))

	p := progressOf(t, store, "u1", "a")
	assert.Equal(t, 60, docstore.Int(p, "progress", 0))
	assert.Equal(t, 2, docstore.Int(p, "currentLessonIndex", 0))
	assert.Equal(t, true, p["unlocked"])
}

func TestEnsureProgressInitializedEmptyCatalog(t *testing.T) {
	store := docstore.NewMemory()
	require.NoError(t, NewRepository(store, nil).EnsureProgressInitialized(context.Background(), "u1"))
	assert.Equal(t, 0, store.Len())
}

func TestSetResumeLessonIndexAndProgress(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedSkills(t, store, "a")
	repo := NewRepository(store, nil)

	repo.SetResumeLessonIndex(ctx, "u1", "a", 3)
	p, err := repo.Progress(ctx, "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentLessonIndex)

	p, err = repo.Progress(ctx, "u1", "missing")
	require.NoError(t, err)
	assert.Equal(t, SkillProgress{}, p)
}

func TestResetProgress(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedSkills(t, store, "a", "b")
	repo := NewRepository(store, nil)
	require.NoError(t, repo.UnlockNextSkill(ctx, "u1", "a"))

	require.NoError(t, repo.ResetProgress(ctx, "u1"))
	assert.Nil(t, progressOf(t, store, "u1", "a"))
	assert.Nil(t, progressOf(t, store, "u1", "b"))
}

func TestErrorKinds(t *testing.T) {
	err := wrap("op", docstore.ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrRemote)

	err = wrap("op", docstore.ErrCorrupt)
	assert.ErrorIs(t, err, ErrDecode)

	assert.NoError(t, wrap("op", nil))
	inner := &Error{Kind: KindUnauthenticated, Op: "x"}
	assert.Same(t, inner, wrap("outer", inner))
}
