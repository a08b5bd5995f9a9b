package identity

import (
	"context"
	"testing"
	"time"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	_, err := Static{}.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)

	u, err := Static{User: User{ID: "u1"}}.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := Issue(User{ID: "u1", Email: "a@b.c", DisplayName: "Ana"}, secret, time.Hour, time.Now())
	require.NoError(t, err)

	u, err := NewToken("Bearer "+tok, string(secret)).CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Ana", u.DisplayName)
	assert.Equal(t, "a@b.c", u.Email)
}

func TestTokenRejects(t *testing.T) {
	secret := []byte("s3cret")
	ctx := context.Background()

	expired, err := Issue(User{ID: "u1"}, secret, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = NewToken(expired, string(secret)).CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	good, err := Issue(User{ID: "u1"}, secret, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = NewToken(good, "other").CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewToken(unsigned, string(secret)).CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = NewToken("", string(secret)).CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestIssueRequiresIDAndSecret(t *testing.T) {
	_, err := Issue(User{}, []byte("x"), time.Hour, time.Now())
	assert.Error(t, err)
	_, err = Issue(User{ID: "u1"}, nil, time.Hour, time.Now())
	assert.Error(t, err)
}

func TestProfileMerge(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	require.NoError(t, SaveProfile(ctx, store, User{ID: "u1", Email: "a@b.c", CurrentLevel: "A1"}))
	require.NoError(t, SaveProfile(ctx, store, User{ID: "u1", DisplayName: "Ana"}))

	u, err := LoadProfile(ctx, store, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", u.Email)
	assert.Equal(t, "Ana", u.DisplayName)
	assert.Equal(t, "A1", u.CurrentLevel)
	assert.Equal(t, "Ana", u.Name())

	u, err = LoadProfile(ctx, store, "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", u.Name())
}
