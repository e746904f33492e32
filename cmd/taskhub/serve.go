// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/taskhub/taskhub/internal/auth"
	authpg "github.com/taskhub/taskhub/internal/auth/postgres"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/httpapi"
	"github.com/taskhub/taskhub/internal/logging"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/store"
	"github.com/taskhub/taskhub/internal/task"
	taskpg "github.com/taskhub/taskhub/internal/task/postgres"
)

// Shutdown and readiness probe timeouts for the serve command.
const (
	shutdownTimeout  = 10 * time.Second
	readinessTimeout = 2 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskHub API server",
		Long: `Start the HTTP API server, serving authentication and task
endpoints backed by PostgreSQL. Runs until SIGINT or SIGTERM.`,
		RunE: runServe,
	}

	cmd.Flags().String("http.addr", config.DefaultHTTPAddr, "API listen address")
	cmd.Flags().String("metrics.addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL env)")
	cmd.Flags().Duration("auth.token_ttl", config.DefaultTokenTTL, "bearer token validity")
	cmd.Flags().String("log.format", config.DefaultLogFormat, "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("taskhub", version, cfg.Log.Format)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	users := authpg.NewUserRepository(pool)
	taskRepo := taskpg.NewTaskRepository(pool)

	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret: []byte(cfg.Auth.TokenSecret),
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	authSvc, err := auth.NewServiceWithLogger(users, auth.NewArgon2idHasher(), tokens, logger)
	if err != nil {
		return err
	}
	taskSvc, err := task.NewService(taskRepo)
	if err != nil {
		return err
	}

	api, err := httpapi.NewServer(cfg.HTTP.Addr, httpapi.Deps{
		Auth:    authSvc,
		Tasks:   taskSvc,
		Users:   users,
		Tokens:  tokens,
		DBCheck: pool.Ping,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// Start observability server if configured
	var obsServer *observability.Server
	var obsErrCh <-chan error
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
			defer cancel()
			return pool.Ping(pingCtx) == nil
		})
		httpapi.RegisterMetrics(obsServer.Registry())

		obsErrCh, err = obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	apiErrCh, err := api.Start()
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("API_START_FAILED").Wrap(err)
	}

	cmd.Println("TaskHub server started on " + api.Addr())
	logger.Info("server ready", "http_addr", api.Addr())

	// Wait for shutdown signal or server failure
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err, ok := <-apiErrCh:
		if ok && err != nil {
			serveErr = oops.Code("API_SERVER_FAILED").Wrap(err)
		}
	case err, ok := <-obsErrCh:
		if ok && err != nil {
			serveErr = oops.Code("OBSERVABILITY_SERVER_FAILED").Wrap(err)
		}
	}

	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := api.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return serveErr
}

// stopObservability stops the observability server if it was started.
func stopObservability(s *observability.Server, logger *slog.Logger) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}
