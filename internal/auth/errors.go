// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when registering with an email that is
	// already associated with an account (case-insensitive).
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password so callers cannot tell which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation is returned when registration input fails format or
	// length constraints.
	ErrValidation = errors.New("validation failed")

	// ErrTokenExpired is returned when a token's signature is valid but its
	// expiry has passed. Callers may prompt for re-login.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned when a token is malformed, unsigned, or
	// carries a bad signature. Callers should treat it as tampering.
	ErrTokenInvalid = errors.New("token invalid")
)
