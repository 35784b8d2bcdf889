// Package credentials supplies the bearer credential attached to remote
// calls. Token acquisition (login flows, refresh) is external; this package
// only holds the current token and answers whether it is still usable.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotAuthenticated is returned when no usable credential is present.
// Sync cycles fail immediately on it and perform no work.
var ErrNotAuthenticated = errors.New("not authenticated")

// Provider yields the current bearer token.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// BearerSource holds a bearer token set by the external auth layer.
// If the token is a JWT, expiry is checked on every read; signature
// verification stays the server's responsibility.
type BearerSource struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

// NewBearerSource creates a source, optionally pre-loaded with a token.
func NewBearerSource(token string) *BearerSource {
	return &BearerSource{token: token, now: time.Now}
}

// Set replaces the current token. An empty string clears it, which makes
// subsequent cycles fail with ErrNotAuthenticated until a new login.
func (s *BearerSource) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the current bearer token, or ErrNotAuthenticated when the
// token is absent or expired.
func (s *BearerSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", ErrNotAuthenticated
	}
	if err := checkExpiry(token, s.now()); err != nil {
		return "", err
	}
	return token, nil
}

// checkExpiry inspects a JWT's exp claim without verifying the signature.
// Opaque (non-JWT) tokens pass through untouched.
func checkExpiry(token string, now time.Time) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not a JWT; the server will judge it.
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(now) {
		return fmt.Errorf("%w: token expired at %s", ErrNotAuthenticated, exp.Format(time.RFC3339))
	}
	return nil
}
