// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package task

import "errors"

var (
	// ErrNotFound is returned when a task does not exist for the caller.
	// An existing task owned by another user yields the same error.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when task input fails constraints.
	ErrValidation = errors.New("validation failed")
)
