// Package identity resolves the signed-in learner and maintains their
// profile document.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNotSignedIn is returned when no user identity is available.
var ErrNotSignedIn = errors.New("not signed in")

// User is the signed-in learner.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	AvatarURL    string
	CurrentLevel string
}

// Provider yields the current user.
type Provider interface {
	CurrentUser(ctx context.Context) (User, error)
}

// Static always returns the same user. An empty ID means signed out.
type Static struct {
	User User
}

func (s Static) CurrentUser(context.Context) (User, error) {
	if s.User.ID == "" {
		return User{}, ErrNotSignedIn
	}
	return s.User, nil
}

// Claims carried by a LingBook token. The subject is the user id.
type Claims struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Token resolves the user from an HMAC-signed JWT.
type Token struct {
	token  string
	secret []byte
}

// NewToken creates a Token provider. The token is verified on every call.
func NewToken(token, secret string) *Token {
	return &Token{token: strings.TrimPrefix(strings.TrimSpace(token), "Bearer "), secret: []byte(secret)}
}

func (t *Token) CurrentUser(context.Context) (User, error) {
	if t.token == "" {
		return User{}, ErrNotSignedIn
	}
	claims, err := Verify(t.token, t.secret)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrNotSignedIn, err)
	}
	return User{ID: claims.Subject, Email: claims.Email, DisplayName: claims.DisplayName}, nil
}

// Verify parses and validates a token signed with secret.
func Verify(token string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Issue signs a token for u that expires after ttl.
func Issue(u User, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	if u.ID == "" {
		return "", errors.New("user id is required")
	}
	if len(secret) == 0 {
		return "", errors.New("token secret is required")
	}
	claims := &Claims{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    "lingbook",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ProfilePath returns the profile document of a user.
func ProfilePath(uid string) string {
	return docstore.Join("users", uid)
}

// SaveProfile merges the non-empty profile fields of u into users/{uid}.
func SaveProfile(ctx context.Context, store docstore.Store, u User) error {
	if u.ID == "" {
		return ErrNotSignedIn
	}
	fields := map[string]any{"uid": u.ID}
	for k, v := range map[string]string{
		"email":        u.Email,
		"displayName":  u.DisplayName,
		"avatarUrl":    u.AvatarURL,
		"currentLevel": u.CurrentLevel,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	if err := store.SetMerge(ctx, ProfilePath(u.ID), fields); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// LoadProfile reads users/{uid}. A missing profile yields a User with only
// the id set.
func LoadProfile(ctx context.Context, store docstore.Store, uid string) (User, error) {
	u := User{ID: uid}
	d, err := store.Get(ctx, ProfilePath(uid))
	if errors.Is(err, docstore.ErrNotFound) {
		return u, nil
	}
	if err != nil {
		return u, fmt.Errorf("load profile: %w", err)
	}
	u.Email = docstore.String(d.Fields, "email", "")
	u.DisplayName = docstore.String(d.Fields, "displayName", "")
	u.AvatarURL = docstore.String(d.Fields, "avatarUrl", "")
	u.CurrentLevel = docstore.String(d.Fields, "currentLevel", "")
	return u, nil
}

// Name returns the display name, falling back to the email or id.
func (u User) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	}
	return u.ID
}
