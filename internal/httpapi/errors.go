// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/taskhub/taskhub/internal/auth"
	"github.com/taskhub/taskhub/internal/task"
	"github.com/taskhub/taskhub/pkg/errutil"
)

// writeError is the single boundary translator from error kind to HTTP
// status and client message. Internal error text never reaches the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation), errors.Is(err, task.ErrValidation):
		writeMessage(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, auth.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, task.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Task not found")
	default:
		errutil.LogError(logger, "request failed", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// validationMessage names the offending field when the error carries one.
// The message is built here, never copied from internal error text.
func validationMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if field, found := oopsErr.Context()["field"]; found {
			return fmt.Sprintf("Invalid or missing field: %v", field)
		}
	}
	return "Invalid input"
}
