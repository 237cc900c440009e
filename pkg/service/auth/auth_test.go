package auth

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStrategy() *JWTStrategy {
	return NewJWTStrategy(&config.Jwt{Secret: "testsecret", Expiry: time.Hour}, slog.Default())
}

func TestSession_SignInSignOut(t *testing.T) {
	s := New(nil, slog.Default())
	ctx := context.Background()

	_, ok := s.CurrentUserID(ctx)
	assert.False(t, ok)

	require.NoError(t, s.SignIn("alice"))
	id, ok := s.CurrentUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "alice", id)

	s.SignOut()
	_, ok = s.CurrentUserID(ctx)
	assert.False(t, ok)
}

func TestSession_SignInRejectsEmpty(t *testing.T) {
	s := New(nil, slog.Default())
	assert.ErrorIs(t, s.SignIn("  "), domain.ErrUnauthorized)
}

func TestSession_SignInWithCredential(t *testing.T) {
	strategy := newStrategy()
	s := New(strategy, slog.Default())

	token, err := strategy.GenerateToken("user-42")
	require.NoError(t, err)

	userID, err := s.SignInWithCredential(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)

	id, ok := s.CurrentUserID(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "user-42", id)
}

func TestSession_SignInWithoutStrategy(t *testing.T) {
	s := New(nil, slog.Default())
	_, err := s.SignInWithCredential(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTStrategy_GenerateToken(t *testing.T) {
	token, err := newStrategy().GenerateToken("bob")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) { return []byte("testsecret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "bob", claims["user_id"])
}

func TestJWTStrategy_Rejects(t *testing.T) {
	strategy := newStrategy()
	ctx := context.Background()

	other := NewJWTStrategy(&config.Jwt{Secret: "different", Expiry: time.Hour}, slog.Default())
	foreign, err := other.GenerateToken("mallory")
	require.NoError(t, err)

	expired := NewJWTStrategy(&config.Jwt{Secret: "testsecret", Expiry: -time.Hour}, slog.Default())
	stale, err := expired.GenerateToken("bob")
	require.NoError(t, err)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	noSubjectToken, err := noSubject.SignedString([]byte("testsecret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"expired":       stale,
		"no user claim": noSubjectToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := strategy.Authenticate(ctx, token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")

	token, err := LoadToken(path)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, SaveToken(path, "abc.def.ghi"))
	token, err = LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, ClearToken(path))
	require.NoError(t, ClearToken(path))
	token, err = LoadToken(path)
	require.NoError(t, err)
	assert.Empty(t, token)
}
