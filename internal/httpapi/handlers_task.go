// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/taskhub/taskhub/internal/task"
)

// createTaskRequest decodes the client-settable creation fields. An owner
// field in the body is simply not decoded.
type createTaskRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      task.Status   `json:"status"`
	Priority    task.Priority `json:"priority"`
	DueDate     *time.Time    `json:"dueDate"`
}

// updateTaskRequest decodes the client-settable update fields. Absent
// fields stay nil and leave the task unchanged; owner and id attempts are
// silently ignored by not being decoded at all.
type updateTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *task.Status   `json:"status"`
	Priority    *task.Priority `json:"priority"`
	DueDate     *time.Time     `json:"dueDate"`
}

// handleListTasks returns the caller's tasks, optionally filtered by
// status, priority, and a glob title search.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		s.reject(w, ReasonMissingToken)
		return
	}

	q := r.URL.Query()
	filter := task.ListFilter{
		Status:   task.Status(q.Get("status")),
		Priority: task.Priority(q.Get("priority")),
		Search:   q.Get("search"),
	}

	tasks, err := s.tasks.List(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	payload := make([]taskPayload, 0, len(tasks))
	for _, t := range tasks {
		payload = append(payload, toTaskPayload(t))
	}
	writeData(w, http.StatusOK, payload)
}

// handleCreateTask creates a task owned by the caller.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		s.reject(w, ReasonMissingToken)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := s.tasks.Create(r.Context(), user.ID, task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeData(w, http.StatusCreated, toTaskPayload(created))
}

// handleGetTask returns a single task owned by the caller.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		s.reject(w, ReasonMissingToken)
		return
	}

	id, ok := taskID(r)
	if !ok {
		// An unparseable ID can't name an existing task.
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}

	t, err := s.tasks.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeData(w, http.StatusOK, toTaskPayload(t))
}

// handleUpdateTask applies partial updates to a task owned by the caller.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		s.reject(w, ReasonMissingToken)
		return
	}

	id, ok := taskID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.tasks.Update(r.Context(), user.ID, id, task.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeData(w, http.StatusOK, toTaskPayload(updated))
}

// handleDeleteTask removes a task owned by the caller.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		s.reject(w, ReasonMissingToken)
		return
	}

	id, ok := taskID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := s.tasks.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// taskID parses the route's task ID variable.
func taskID(r *http.Request) (ulid.ULID, bool) {
	id, err := ulid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return ulid.ULID{}, false
	}
	return id, true
}
