// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the validity window for issued tokens when the
// configuration does not override it.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig holds the signing configuration. It is immutable after
// construction; the secret is never read from ambient state.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Claims is the JWT payload. The user ID travels in the registered Subject
// claim; nothing else about the account is embedded.
type Claims struct {
	jwt.RegisteredClaims
}

// Tokens issues and verifies HMAC-signed bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token issuer/verifier from the given configuration.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code("AUTH_TOKEN_CONFIG").Errorf("token secret is required")
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, oops.Code("AUTH_TOKEN_CONFIG").Errorf("token TTL must be positive, got %s", ttl)
	}
	return &Tokens{secret: cfg.Secret, ttl: ttl}, nil
}

// TTL returns the configured validity window.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue creates a signed token binding the user ID with issued-at and
// expiry timestamps.
func (t *Tokens) Issue(userID ulid.ULID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the bound user
// ID. Signature integrity is checked before any claim is trusted. Returns
// ErrTokenExpired (wrapped) for a well-signed but stale token and
// ErrTokenInvalid (wrapped) for anything malformed, unsigned, or forged.
func (t *Tokens) Verify(tokenString string) (ulid.ULID, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ulid.ULID{}, oops.Code("AUTH_TOKEN_EXPIRED").Wrap(ErrTokenExpired)
		}
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrTokenInvalid)
	}
	if !token.Valid {
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrTokenInvalid)
	}

	userID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_INVALID").
			With("subject", claims.Subject).
			Wrap(ErrTokenInvalid)
	}
	return userID, nil
}
