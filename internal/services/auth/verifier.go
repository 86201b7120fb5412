package auth

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/quietgrove/intently/internal/apperr"
)

// Claims are the token claims the application cares about
type Claims struct {
	Subject string
	Email   string
}

// Verifier validates bearer tokens against either a remote key set or a
// shared HMAC secret. Exactly one of the two is configured.
type Verifier struct {
	jwks   *JWKSManager
	secret []byte
	issuer string
}

// NewJWKSVerifier verifies tokens signed by keys published at a JWKS URL
func NewJWKSVerifier(jwksURL, issuer string) *Verifier {
	return &Verifier{
		jwks:   NewJWKSManager(jwksURL),
		issuer: issuer,
	}
}

// NewHMACVerifier verifies tokens signed with a shared HS256 secret
func NewHMACVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{
		secret: secret,
		issuer: issuer,
	}
}

// Verify parses and validates a token, returning the extracted claims.
// Any verification failure is reported as an authentication error.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParseOption{jwt.WithValidate(true)}
	if v.jwks != nil {
		keys, err := v.jwks.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrAuthRequired, err)
		}
		opts = append(opts, jwt.WithKeySet(keys))
	} else {
		opts = append(opts, jwt.WithKey(jwa.HS256, v.secret))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrAuthRequired, err)
	}

	claims := &Claims{Subject: token.Subject()}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token missing subject claim", apperr.ErrAuthRequired)
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}

	return claims, nil
}
