// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("taskhub/auth")

// dummyPasswordHash is used when a user doesn't exist to prevent timing
// attacks. We still run password verification to make response time
// consistent. This is NOT a real credential - it's a fake hash that will
// never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service provides registration and login.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *Tokens
	logger *slog.Logger
}

// NewService creates a new auth Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens *Tokens) (*Service, error) {
	return NewServiceWithLogger(users, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a new auth Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, hasher PasswordHasher, tokens *Tokens, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger}, nil
}

// Register creates an account and issues a bearer token for it.
// The email uniqueness check is the store's unique index; the insert either
// fully succeeds or fails with ErrEmailTaken, there is no partial write.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, string, error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer span.End()

	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if err := ValidateName(name); err != nil {
		return nil, "", err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		ID:           ulid.Make(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, "", err
		}
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	s.logger.Info("user registered", "user_id", user.ID.String())

	return user, token, nil
}

// Login verifies credentials and issues a fresh bearer token.
// Unknown email and wrong password produce the identical error; a dummy
// hash is verified for unknown emails so timing stays uniform.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer span.End()

	user, lookupErr := s.users.GetByEmail(ctx, strings.TrimSpace(email))

	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify, even against the dummy hash.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// Malformed hash fails closed: same error as a wrong password.
		s.logger.Warn("password verification error", "error", verifyErr)
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if !userExists || !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	s.logger.Info("user logged in", "user_id", user.ID.String())

	return user, token, nil
}
