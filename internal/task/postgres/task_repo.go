// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

// Package postgres implements task repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/taskhub/taskhub/internal/task"
)

// DB is the subset of pgxpool.Pool the repository uses. It allows unit
// tests to substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TaskRepository implements task.Repository using PostgreSQL. Every query
// that targets a single task filters on both id and owner_id, so the
// ownership check and the operation are one statement.
type TaskRepository struct {
	db DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create stores a new task.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, status, priority, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		t.ID.String(),
		t.OwnerID.String(),
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.DueDate,
		t.CreatedAt,
	)
	if err != nil {
		return oops.Code("TASK_CREATE_FAILED").
			With("operation", "insert task").
			With("task_id", t.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByOwner retrieves a task by ID, scoped to the owner.
func (r *TaskRepository) GetByOwner(ctx context.Context, id, ownerID ulid.ULID) (*task.Task, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, owner_id, title, description, status, priority, due_date, created_at
		FROM tasks
		WHERE id = $1 AND owner_id = $2
	`, id.String(), ownerID.String())

	t, err := r.scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TASK_NOT_FOUND").
			With("task_id", id.String()).
			Wrap(task.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TASK_GET_FAILED").
			With("operation", "get task by owner").
			With("task_id", id.String()).
			Wrap(err)
	}
	return t, nil
}

// ListByOwner retrieves all tasks for the owner, newest first.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*task.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, title, description, status, priority, due_date, created_at
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID.String())
	if err != nil {
		return nil, oops.Code("TASK_LIST_FAILED").
			With("operation", "list tasks by owner").
			Wrap(err)
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, oops.Code("TASK_LIST_FAILED").
				With("operation", "scan task row").
				Wrap(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TASK_LIST_FAILED").
			With("operation", "iterate task rows").
			Wrap(err)
	}
	return tasks, nil
}

// Update persists the mutable fields, scoped to the owner. The owner_id
// predicate makes check-and-act a single statement; zero rows affected
// means the task is gone or was never the caller's.
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	result, err := r.db.Exec(ctx, `
		UPDATE tasks SET
			title = $3,
			description = $4,
			status = $5,
			priority = $6,
			due_date = $7
		WHERE id = $1 AND owner_id = $2
	`,
		t.ID.String(),
		t.OwnerID.String(),
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.DueDate,
	)
	if err != nil {
		return oops.Code("TASK_UPDATE_FAILED").
			With("operation", "update task").
			With("task_id", t.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TASK_NOT_FOUND").
			With("task_id", t.ID.String()).
			Wrap(task.ErrNotFound)
	}
	return nil
}

// DeleteByOwner removes a task by ID, scoped to the owner.
func (r *TaskRepository) DeleteByOwner(ctx context.Context, id, ownerID ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM tasks WHERE id = $1 AND owner_id = $2
	`, id.String(), ownerID.String())
	if err != nil {
		return oops.Code("TASK_DELETE_FAILED").
			With("operation", "delete task").
			With("task_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TASK_NOT_FOUND").
			With("task_id", id.String()).
			Wrap(task.ErrNotFound)
	}
	return nil
}

// scanTask scans a single row into a Task.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *TaskRepository) scanTask(row pgx.Row) (*task.Task, error) {
	var (
		idStr      string
		ownerIDStr string
		title      string
		descr      string
		status     string
		priority   string
		dueDate    *time.Time
		createdAt  time.Time
	)

	err := row.Scan(&idStr, &ownerIDStr, &title, &descr, &status, &priority, &dueDate, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("TASK_SCAN_FAILED").
			With("operation", "scan task").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TASK_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}
	ownerID, err := ulid.Parse(ownerIDStr)
	if err != nil {
		return nil, oops.Code("TASK_INVALID_OWNER_ID").
			With("owner_id", ownerIDStr).
			Wrap(err)
	}

	return &task.Task{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: descr,
		Status:      task.Status(status),
		Priority:    task.Priority(priority),
		DueDate:     dueDate,
		CreatedAt:   createdAt,
	}, nil
}

// Compile-time interface check.
var _ task.Repository = (*TaskRepository)(nil)
