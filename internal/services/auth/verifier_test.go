package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/quietgrove/intently/internal/apperr"
)

const testIssuer = "https://auth.example.com"

func signedToken(t *testing.T, secret []byte, mutate func(*jwt.Builder) *jwt.Builder) string {
	t.Helper()

	b := jwt.NewBuilder().
		Subject("user-123").
		Issuer(testIssuer).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Claim("email", "user@example.com")
	if mutate != nil {
		b = mutate(b)
	}

	token, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build token: %v", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return string(signed)
}

func TestHMACVerify(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret-test-secret-test-sec")
	v := NewHMACVerifier(secret, testIssuer)

	t.Run("valid token yields claims", func(t *testing.T) {
		t.Parallel()

		claims, err := v.Verify(context.Background(), signedToken(t, secret, nil))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if claims.Subject != "user-123" {
			t.Errorf("Expected subject 'user-123', got %q", claims.Subject)
		}
		if claims.Email != "user@example.com" {
			t.Errorf("Expected email claim, got %q", claims.Email)
		}
	})

	t.Run("wrong secret is an auth error", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, []byte("another-secret-another-secret-12"), nil)
		_, err := v.Verify(context.Background(), token)
		if !errors.Is(err, apperr.ErrAuthRequired) {
			t.Errorf("Expected ErrAuthRequired, got %v", err)
		}
	})

	t.Run("expired token is an auth error", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, secret, func(b *jwt.Builder) *jwt.Builder {
			return b.Expiration(time.Now().Add(-time.Hour))
		})
		_, err := v.Verify(context.Background(), token)
		if !errors.Is(err, apperr.ErrAuthRequired) {
			t.Errorf("Expected ErrAuthRequired, got %v", err)
		}
	})

	t.Run("wrong issuer is an auth error", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, secret, func(b *jwt.Builder) *jwt.Builder {
			return b.Issuer("https://rogue.example.com")
		})
		_, err := v.Verify(context.Background(), token)
		if !errors.Is(err, apperr.ErrAuthRequired) {
			t.Errorf("Expected ErrAuthRequired, got %v", err)
		}
	})

	t.Run("missing subject is an auth error", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, secret, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("")
		})
		_, err := v.Verify(context.Background(), token)
		if !errors.Is(err, apperr.ErrAuthRequired) {
			t.Errorf("Expected ErrAuthRequired, got %v", err)
		}
	})

	t.Run("garbage token is an auth error", func(t *testing.T) {
		t.Parallel()

		_, err := v.Verify(context.Background(), "not.a.token")
		if !errors.Is(err, apperr.ErrAuthRequired) {
			t.Errorf("Expected ErrAuthRequired, got %v", err)
		}
	})
}

func TestVerifierWithoutIssuerCheck(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret-test-secret-test-sec")
	v := NewHMACVerifier(secret, "")

	token := signedToken(t, secret, func(b *jwt.Builder) *jwt.Builder {
		return b.Issuer("https://anything.example.com")
	})
	if _, err := v.Verify(context.Background(), token); err != nil {
		t.Errorf("Expected issuer to be unchecked, got %v", err)
	}
}
