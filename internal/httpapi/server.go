// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/taskhub/taskhub/internal/auth"
	"github.com/taskhub/taskhub/internal/task"
)

// Deps carries the collaborators the API server needs. All fields are
// required except DBCheck, which defaults to always-healthy.
type Deps struct {
	Auth    *auth.Service
	Tasks   *task.Service
	Users   auth.UserRepository
	Tokens  *auth.Tokens
	DBCheck func(context.Context) error
	Logger  *slog.Logger
}

// Server serves the TaskHub JSON API.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	router     *mux.Router
	running    atomic.Bool

	auth    *auth.Service
	tasks   *task.Service
	users   auth.UserRepository
	tokens  *auth.Tokens
	dbCheck func(context.Context) error
	logger  *slog.Logger
}

// NewServer creates the API server and builds its routes.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if deps.Tasks == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("task service is required")
	}
	if deps.Users == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("users repository is required")
	}
	if deps.Tokens == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("token verifier is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:    addr,
		auth:    deps.Auth,
		tasks:   deps.Tasks,
		users:   deps.Users,
		tokens:  deps.Tokens,
		dbCheck: deps.DBCheck,
		logger:  logger,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)
	r.NotFoundHandler = s.instrument(http.HandlerFunc(s.handleNotFound))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	taskRoutes := api.PathPrefix("/tasks").Subrouter()
	taskRoutes.Use(s.authenticate)
	taskRoutes.HandleFunc("", s.handleListTasks).Methods(http.MethodGet)
	taskRoutes.HandleFunc("", s.handleCreateTask).Methods(http.MethodPost)
	taskRoutes.HandleFunc("/{id}", s.handleGetTask).Methods(http.MethodGet)
	taskRoutes.HandleFunc("/{id}", s.handleUpdateTask).Methods(http.MethodPut)
	taskRoutes.HandleFunc("/{id}", s.handleDeleteTask).Methods(http.MethodDelete)

	return r
}

// handleNotFound keeps the envelope invariant for unknown routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Route not found")
}

// healthData is the /api/health response body.
type healthData struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"timestamp"`
}

// handleHealth reports process and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "Connected"
	if s.dbCheck != nil {
		if err := s.dbCheck(r.Context()); err != nil {
			dbStatus = "Disconnected"
		}
	}
	writeData(w, http.StatusOK, healthData{
		Status:   "OK",
		Database: dbStatus,
		Time:     time.Now().UTC(),
	})
}

// Start begins serving the API. It returns an error channel that receives
// any serve error after startup; the channel is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
