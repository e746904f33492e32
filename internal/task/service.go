// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("taskhub/task")

// ownerAttr tags a span with the authenticated caller.
func ownerAttr(caller ulid.ULID) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("owner.id", caller.String()))
}

// Service gates every task operation on ownership. Callers pass the
// authenticated user's ID; nothing in the inputs can redirect an operation
// at another user's data.
type Service struct {
	tasks Repository
}

// NewService creates a task Service.
func NewService(tasks Repository) (*Service, error) {
	if tasks == nil {
		return nil, oops.Code("TASK_NIL_DEPENDENCY").Errorf("tasks repository is required")
	}
	return &Service{tasks: tasks}, nil
}

// List returns the caller's tasks, optionally narrowed by filter.
// Other users' tasks are never visible, not even through counts.
func (s *Service) List(ctx context.Context, caller ulid.ULID, filter ListFilter) ([]*Task, error) {
	ctx, span := tracer.Start(ctx, "task.List", ownerAttr(caller))
	defer span.End()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, oops.Code("TASK_VALIDATION").
			With("field", "status").
			With("value", string(filter.Status)).
			Wrap(ErrValidation)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, oops.Code("TASK_VALIDATION").
			With("field", "priority").
			With("value", string(filter.Priority)).
			Wrap(ErrValidation)
	}

	var matcher glob.Glob
	if filter.Search != "" {
		g, err := glob.Compile(strings.ToLower(filter.Search))
		if err != nil {
			return nil, oops.Code("TASK_VALIDATION").
				With("field", "search").
				Wrap(ErrValidation)
		}
		matcher = g
	}

	tasks, err := s.tasks.ListByOwner(ctx, caller)
	if err != nil {
		return nil, oops.Code("TASK_LIST_FAILED").
			With("operation", "list tasks by owner").
			Wrap(err)
	}

	filtered := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if matcher != nil && !matcher.Match(strings.ToLower(t.Title)) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered, nil
}

// Get returns a task owned by the caller. A task owned by someone else is
// reported as not found, indistinguishable from nonexistence.
func (s *Service) Get(ctx context.Context, caller, id ulid.ULID) (*Task, error) {
	ctx, span := tracer.Start(ctx, "task.Get", ownerAttr(caller))
	defer span.End()

	t, err := s.tasks.GetByOwner(ctx, id, caller)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("TASK_GET_FAILED").
			With("operation", "get task").
			With("task_id", id.String()).
			Wrap(err)
	}
	return t, nil
}

// Create stores a new task for the caller. The owner is always the caller;
// status and priority default to pending and medium.
func (s *Service) Create(ctx context.Context, caller ulid.ULID, in CreateInput) (*Task, error) {
	ctx, span := tracer.Start(ctx, "task.Create", ownerAttr(caller))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	t := &Task{
		ID:          ulid.Make(),
		OwnerID:     caller,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     in.DueDate,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, oops.Code("TASK_CREATE_FAILED").
			With("operation", "insert task").
			Wrap(err)
	}
	return t, nil
}

// Update applies the provided fields to a task owned by the caller.
// Owner and ID cannot be changed; last write wins for concurrent edits by
// the same owner.
func (s *Service) Update(ctx context.Context, caller, id ulid.ULID, in UpdateInput) (*Task, error) {
	ctx, span := tracer.Start(ctx, "task.Update", ownerAttr(caller))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	t, err := s.tasks.GetByOwner(ctx, id, caller)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("TASK_UPDATE_FAILED").
			With("operation", "get task").
			With("task_id", id.String()).
			Wrap(err)
	}

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}

	// The update statement is owner-scoped again, so a row that vanished
	// between read and write surfaces as not found rather than a lost check.
	if err := s.tasks.Update(ctx, t); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("TASK_UPDATE_FAILED").
			With("operation", "update task").
			With("task_id", id.String()).
			Wrap(err)
	}
	return t, nil
}

// Delete removes a task owned by the caller. A repeat delete, a delete of
// another user's task, and a delete of a nonexistent ID all return
// ErrNotFound.
func (s *Service) Delete(ctx context.Context, caller, id ulid.ULID) error {
	ctx, span := tracer.Start(ctx, "task.Delete", ownerAttr(caller))
	defer span.End()

	err := s.tasks.DeleteByOwner(ctx, id, caller)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return oops.Code("TASK_DELETE_FAILED").
			With("operation", "delete task").
			With("task_id", id.String()).
			Wrap(err)
	}
	return nil
}
