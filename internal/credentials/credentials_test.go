package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": expiresAt.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return s
}

func TestBearerSource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token means not authenticated", func(t *testing.T) {
		src := NewBearerSource("")
		_, err := src.Token(ctx)
		if !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("opaque token passes through", func(t *testing.T) {
		src := NewBearerSource("opaque-api-key-123")
		got, err := src.Token(ctx)
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if got != "opaque-api-key-123" {
			t.Errorf("Token = %s, want opaque-api-key-123", got)
		}
	})

	t.Run("valid JWT passes through", func(t *testing.T) {
		token := signedToken(t, time.Now().Add(time.Hour))
		src := NewBearerSource(token)
		got, err := src.Token(ctx)
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if got != token {
			t.Error("Expected the original token back")
		}
	})

	t.Run("expired JWT means not authenticated", func(t *testing.T) {
		src := NewBearerSource(signedToken(t, time.Now().Add(-time.Hour)))
		_, err := src.Token(ctx)
		if !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("set replaces and clears the token", func(t *testing.T) {
		src := NewBearerSource("first")
		src.Set("second")
		got, err := src.Token(ctx)
		if err != nil || got != "second" {
			t.Errorf("Token = %s, %v; want second, nil", got, err)
		}

		src.Set("")
		if _, err := src.Token(ctx); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated after clearing, got %v", err)
		}
	})
}
