package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/davstore/internal/sqlite"
	"github.com/mesh-intelligence/davstore/pkg/types"
)

func newToken(t *testing.T, expires time.Time) string {
	t.Helper()
	claims := &jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return signed
}

func setupSession(t *testing.T) *Session {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return NewSession(b)
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(t *testing.T, s *Session)
	}{
		{
			name: "no token means not authenticated",
			check: func(t *testing.T, s *Session) {
				assert.False(t, s.IsAuthenticated(ctx))
				_, err := s.JWT(ctx)
				assert.ErrorIs(t, err, ErrNoSession)
			},
		},
		{
			name: "login with a valid token authenticates",
			check: func(t *testing.T, s *Session) {
				token := newToken(t, time.Now().Add(time.Hour))
				require.NoError(t, s.Login(ctx, token))

				assert.True(t, s.IsAuthenticated(ctx))
				got, err := s.JWT(ctx)
				require.NoError(t, err)
				assert.Equal(t, token, got)

				claims, err := s.Claims(ctx)
				require.NoError(t, err)
				assert.Equal(t, "user-42", claims.Subject)
			},
		},
		{
			name: "expired token is rejected at login",
			check: func(t *testing.T, s *Session) {
				err := s.Login(ctx, newToken(t, time.Now().Add(-time.Minute)))
				assert.ErrorIs(t, err, ErrTokenExpired)
				assert.False(t, s.IsAuthenticated(ctx))
			},
		},
		{
			name: "garbage token is rejected",
			check: func(t *testing.T, s *Session) {
				assert.ErrorIs(t, s.Login(ctx, "not.a.jwt"), ErrInvalidToken)
			},
		},
		{
			name: "stored token expires with time",
			check: func(t *testing.T, s *Session) {
				require.NoError(t, s.Login(ctx, newToken(t, time.Now().Add(time.Hour))))
				s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

				assert.False(t, s.IsAuthenticated(ctx))
				_, err := s.Claims(ctx)
				assert.ErrorIs(t, err, ErrTokenExpired)
			},
		},
		{
			name: "logout clears the session",
			check: func(t *testing.T, s *Session) {
				require.NoError(t, s.Login(ctx, newToken(t, time.Now().Add(time.Hour))))
				require.NoError(t, s.Logout(ctx))

				assert.False(t, s.IsAuthenticated(ctx))
				assert.NoError(t, s.Logout(ctx))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupSession(t))
		})
	}
}
