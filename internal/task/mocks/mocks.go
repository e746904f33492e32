// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

// Package mocks provides testify mocks for task interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/taskhub/taskhub/internal/task"
)

// testingT is the subset of *testing.T the constructors need.
type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockRepository is a testify mock for task.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a mock wired to the test lifecycle.
func NewMockRepository(t testingT) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) GetByOwner(ctx context.Context, id, ownerID ulid.ULID) (*task.Task, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) DeleteByOwner(ctx context.Context, id, ownerID ulid.ULID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

var _ task.Repository = (*MockRepository)(nil)
