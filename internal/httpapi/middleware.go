// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/taskhub/taskhub/internal/auth"
)

type ctxKey string

const userKey ctxKey = "user"

// UserFromContext returns the authenticated user attached by the session
// middleware. Handlers must use this, never identity fields from the
// request body.
func UserFromContext(ctx context.Context) (*auth.User, bool) {
	u, ok := ctx.Value(userKey).(*auth.User)
	return u, ok
}

// authenticate extracts and verifies the bearer token, resolves the user,
// and attaches it to the request context. Every failure short-circuits to
// 401 with the same client message; the reason is kept for metrics only.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.reject(w, ReasonMissingToken)
			return
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				s.reject(w, ReasonTokenExpired)
			} else {
				s.reject(w, ReasonTokenInvalid)
			}
			return
		}

		// A token can outlive its account; resolve against the store.
		user, err := s.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				s.reject(w, ReasonUnknownUser)
			} else {
				writeError(w, s.logger, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reject writes the uniform unauthenticated response.
func (s *Server) reject(w http.ResponseWriter, reason string) {
	recordAuthFailure(reason)
	s.logger.Debug("request rejected", "reason", reason)
	writeMessage(w, http.StatusUnauthorized, "Not authorized")
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// instrument logs each request and records request metrics, labeled by the
// route template rather than the raw path to keep cardinality bounded.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		duration := time.Since(start)
		recordRequest(r.Method, route, rec.status, duration)
		s.logger.Info("request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
		)
	})
}
