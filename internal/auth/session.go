// Package auth keeps the sync credential of the local user. The credential
// is a JWT issued by the remote service and stored in the settings table.
//
// The client never holds the signing key, so tokens are decoded without
// signature verification and only their expiry is checked. The server
// remains the authority on whether a token is valid.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

// SettingJWT is the settings key holding the session token.
const SettingJWT = "jwt"

// Session errors.
var (
	ErrNoSession    = errors.New("not logged in")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Compile-time interface check: Session must implement Authenticator.
var _ types.Authenticator = (*Session)(nil)

// Session implements types.Authenticator over a stored JWT.
type Session struct {
	store  types.SettingsStore
	now    func() time.Time
	parser *jwt.Parser
}

// NewSession returns a Session that persists its token in store.
func NewSession(store types.SettingsStore) *Session {
	return &Session{
		store:  store,
		now:    time.Now,
		parser: jwt.NewParser(),
	}
}

// Login stores token after checking that it decodes and has not expired.
func (s *Session) Login(ctx context.Context, token string) error {
	if _, err := s.decode(token); err != nil {
		return err
	}
	if err := s.store.SetSetting(ctx, SettingJWT, token); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	return nil
}

// Logout removes the stored token.
func (s *Session) Logout(ctx context.Context) error {
	return s.store.DeleteSetting(ctx, SettingJWT)
}

// JWT returns the stored token or ErrNoSession.
func (s *Session) JWT(ctx context.Context) (string, error) {
	token, err := s.store.GetSetting(ctx, SettingJWT)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return "", ErrNoSession
		}
		return "", err
	}
	return token, nil
}

// Claims decodes the stored token.
func (s *Session) Claims(ctx context.Context) (*jwt.RegisteredClaims, error) {
	token, err := s.JWT(ctx)
	if err != nil {
		return nil, err
	}
	return s.decode(token)
}

// IsAuthenticated reports whether a stored, unexpired token exists.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, err := s.Claims(ctx)
	return err == nil
}

func (s *Session) decode(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}
