// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

// Package task provides the task model and owner-scoped task operations.
package task

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxTitleLength bounds task titles.
const MaxTitleLength = 200

// Status is the lifecycle state of a task.
type Status string

// Task statuses.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority is the urgency of a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a tracked task. OwnerID is set exactly once at creation
// from the authenticated caller and never from client input.
type Task struct {
	ID          ulid.ULID
	OwnerID     ulid.ULID
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	CreatedAt   time.Time
}

// CreateInput carries the client-settable fields for task creation.
// Owner is deliberately absent.
type CreateInput struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
}

// UpdateInput carries the client-settable fields for task updates. Nil
// means "leave unchanged". Owner and ID are structurally not updatable.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
}

// ListFilter narrows List results. Zero values match everything.
// Search is a glob pattern matched case-insensitively against titles.
type ListFilter struct {
	Status   Status
	Priority Priority
	Search   string
}

// Validate checks the creation input constraints.
func (in CreateInput) Validate() error {
	if in.Title == "" {
		return oops.Code("TASK_VALIDATION").
			With("field", "title").
			Wrap(ErrValidation)
	}
	if len(in.Title) > MaxTitleLength {
		return oops.Code("TASK_VALIDATION").
			With("field", "title").
			With("max", MaxTitleLength).
			Wrap(ErrValidation)
	}
	if in.Status != "" && !in.Status.Valid() {
		return oops.Code("TASK_VALIDATION").
			With("field", "status").
			With("value", string(in.Status)).
			Wrap(ErrValidation)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return oops.Code("TASK_VALIDATION").
			With("field", "priority").
			With("value", string(in.Priority)).
			Wrap(ErrValidation)
	}
	return nil
}

// Validate checks the update input constraints.
func (in UpdateInput) Validate() error {
	if in.Title != nil && (*in.Title == "" || len(*in.Title) > MaxTitleLength) {
		return oops.Code("TASK_VALIDATION").
			With("field", "title").
			Wrap(ErrValidation)
	}
	if in.Status != nil && !in.Status.Valid() {
		return oops.Code("TASK_VALIDATION").
			With("field", "status").
			With("value", string(*in.Status)).
			Wrap(ErrValidation)
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return oops.Code("TASK_VALIDATION").
			With("field", "priority").
			With("value", string(*in.Priority)).
			Wrap(ErrValidation)
	}
	return nil
}

// Repository manages task persistence. Every read and mutation is scoped
// to an owner so an ownership mismatch is indistinguishable from a missing
// row, and the check and the act are a single statement.
type Repository interface {
	// Create stores a new task.
	Create(ctx context.Context, t *Task) error

	// GetByOwner retrieves a task by ID, scoped to the owner.
	// Returns ErrNotFound when the row is absent or owned by someone else.
	GetByOwner(ctx context.Context, id, ownerID ulid.ULID) (*Task, error)

	// ListByOwner retrieves all tasks for the owner, newest first.
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*Task, error)

	// Update persists the mutable fields of t, scoped to t.OwnerID.
	// Returns ErrNotFound when no row matched.
	Update(ctx context.Context, t *Task) error

	// DeleteByOwner removes a task by ID, scoped to the owner.
	// Returns ErrNotFound when no row matched.
	DeleteByOwner(ctx context.Context, id, ownerID ulid.ULID) error
}
