// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Input constraints for registration.
const (
	MinPasswordLength = 6
	MaxNameLength     = 100
	MaxEmailLength    = 254
)

// emailRegex accepts a pragmatic subset of RFC 5322 addresses: one @, a
// non-empty local part, and a dotted domain.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a registered account. PasswordHash never leaves the auth
// and storage layers; API payloads are built from the other fields only.
type User struct {
	ID           ulid.ULID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ValidateName checks the display name constraints.
func ValidateName(name string) error {
	if name == "" {
		return oops.Code("AUTH_VALIDATION").
			With("field", "name").
			Wrap(ErrValidation)
	}
	if len(name) > MaxNameLength {
		return oops.Code("AUTH_VALIDATION").
			With("field", "name").
			With("max", MaxNameLength).
			Wrap(ErrValidation)
	}
	return nil
}

// ValidateEmail checks the email format and length constraints.
func ValidateEmail(email string) error {
	if email == "" || len(email) > MaxEmailLength || !emailRegex.MatchString(email) {
		return oops.Code("AUTH_VALIDATION").
			With("field", "email").
			Wrap(ErrValidation)
	}
	return nil
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_VALIDATION").
			With("field", "password").
			With("min", MinPasswordLength).
			Wrap(ErrValidation)
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrEmailTaken (wrapped) when the
	// email is already registered, matched case-insensitively.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
