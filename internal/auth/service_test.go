// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub/internal/auth"
	"github.com/taskhub/taskhub/internal/auth/mocks"
	"github.com/taskhub/taskhub/pkg/errutil"
)

func newTestService(t *testing.T) (*auth.Service, *mocks.MockUserRepository, *mocks.MockPasswordHasher) {
	t.Helper()

	users := mocks.NewMockUserRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)
	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)

	svc, err := auth.NewService(users, hasher, tokens)
	require.NoError(t, err)
	return svc, users, hasher
}

func TestNewService_NilDependencies(t *testing.T) {
	users := mocks.NewMockUserRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)
	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: []byte("test-secret")})
	require.NoError(t, err)

	tests := []struct {
		name string
		fn   func() (*auth.Service, error)
	}{
		{name: "nil users", fn: func() (*auth.Service, error) { return auth.NewService(nil, hasher, tokens) }},
		{name: "nil hasher", fn: func() (*auth.Service, error) { return auth.NewService(users, nil, tokens) }},
		{name: "nil tokens", fn: func() (*auth.Service, error) { return auth.NewService(users, hasher, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_NIL_DEPENDENCY")
		})
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("successful registration issues token", func(t *testing.T) {
		svc, users, hasher := newTestService(t)

		hasher.On("Hash", "secret-password").Return("$argon2id$hashed", nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.Name == "Ada Lovelace" &&
				u.Email == "ada@example.com" &&
				u.PasswordHash == "$argon2id$hashed" &&
				u.ID != (ulid.ULID{})
		})).Return(nil)

		user, token, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "secret-password")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("input is trimmed before validation", func(t *testing.T) {
		svc, users, hasher := newTestService(t)

		hasher.On("Hash", "secret-password").Return("$argon2id$hashed", nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.Name == "Ada" && u.Email == "ada@example.com"
		})).Return(nil)

		user, _, err := svc.Register(ctx, "  Ada  ", "  ada@example.com  ", "secret-password")
		require.NoError(t, err)
		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, "ada@example.com", user.Email)
	})

	t.Run("validation failures never reach the store", func(t *testing.T) {
		tests := []struct {
			name     string
			userName string
			email    string
			password string
			field    string
		}{
			{name: "empty name", userName: "", email: "ada@example.com", password: "secret-password", field: "name"},
			{name: "bad email", email: "not-an-email", userName: "Ada", password: "secret-password", field: "email"},
			{name: "short password", userName: "Ada", email: "ada@example.com", password: "short", field: "password"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, _, _ := newTestService(t)

				_, _, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
				require.Error(t, err)
				assert.ErrorIs(t, err, auth.ErrValidation)
				errutil.AssertErrorContext(t, err, "field", tt.field)
			})
		}
	})

	t.Run("duplicate email passes through ErrEmailTaken", func(t *testing.T) {
		svc, users, hasher := newTestService(t)

		hasher.On("Hash", "secret-password").Return("$argon2id$hashed", nil)
		users.On("Create", mock.Anything, mock.Anything).Return(auth.ErrEmailTaken)

		_, _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("hasher failure wraps as register failure", func(t *testing.T) {
		svc, _, hasher := newTestService(t)

		hasher.On("Hash", "secret-password").Return("", errors.New("out of entropy"))

		_, _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret-password")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_REGISTER_FAILED")
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	userID := ulid.Make()
	stored := &auth.User{
		ID:           userID,
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$argon2id$stored-hash",
		CreatedAt:    time.Now().UTC(),
	}

	t.Run("valid credentials issue token", func(t *testing.T) {
		svc, users, hasher := newTestService(t)

		users.On("GetByEmail", mock.Anything, "ada@example.com").Return(stored, nil)
		hasher.On("Verify", "secret-password", stored.PasswordHash).Return(true, nil)

		user, token, err := svc.Login(ctx, "ada@example.com", "secret-password")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, userID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users, hasher := newTestService(t)

		users.On("GetByEmail", mock.Anything, "ada@example.com").Return(stored, nil)
		hasher.On("Verify", "wrong-password", stored.PasswordHash).Return(false, nil)

		_, _, err := svc.Login(ctx, "ada@example.com", "wrong-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email verifies dummy hash and fails identically", func(t *testing.T) {
		svc, users, hasher := newTestService(t)

		users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, auth.ErrNotFound)
		// The dummy hash must still be verified to keep timing uniform.
		hasher.On("Verify", "secret-password", mock.MatchedBy(func(hash string) bool {
			return hash != "" && hash != stored.PasswordHash
		})).Return(false, nil)

		_, _, err := svc.Login(ctx, "ghost@example.com", "secret-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		svc, users, hasher := newTestService(t)

		users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, auth.ErrNotFound)
		users.On("GetByEmail", mock.Anything, "ada@example.com").Return(stored, nil)
		hasher.On("Verify", "wrong-password", mock.Anything).Return(false, nil)

		_, _, unknownErr := svc.Login(ctx, "ghost@example.com", "wrong-password")
		_, _, wrongErr := svc.Login(ctx, "ada@example.com", "wrong-password")

		require.Error(t, unknownErr)
		require.Error(t, wrongErr)
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("malformed stored hash fails closed", func(t *testing.T) {
		svc, users, hasher := newTestService(t)

		users.On("GetByEmail", mock.Anything, "ada@example.com").Return(stored, nil)
		hasher.On("Verify", "secret-password", stored.PasswordHash).
			Return(false, errors.New("invalid hash format"))

		_, _, err := svc.Login(ctx, "ada@example.com", "secret-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("repository failure is not invalid credentials", func(t *testing.T) {
		svc, users, _ := newTestService(t)

		users.On("GetByEmail", mock.Anything, "ada@example.com").
			Return(nil, errors.New("connection refused"))

		_, _, err := svc.Login(ctx, "ada@example.com", "secret-password")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
		errutil.AssertErrorCode(t, err, "AUTH_LOGIN_FAILED")
	})
}
