// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/delivery"
	"github.com/tutordesk/tutordesk/internal/httpapi"
	"github.com/tutordesk/tutordesk/internal/logging"
	"github.com/tutordesk/tutordesk/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal authentication service",
		Long: `Start the HTTP API for password logins, passcode logins and
session lookups, plus the metrics and health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	// Flag names mirror the config file keys so both feed the same
	// koanf instance.
	defaults := config.Default()
	cmd.Flags().String("listenAddr", defaults.ListenAddr, "public HTTP API listen address")
	cmd.Flags().String("metricsAddr", defaults.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("logFormat", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().Bool("demoMode", defaults.DemoMode, "return issued passcodes to the caller (never in production)")
	cmd.Flags().String("backend", defaults.Backend, "storage backend (memory, redis or postgres)")
	cmd.Flags().String("databaseUrl", "", "PostgreSQL connection URL for the postgres backend")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	logger := logging.Setup("tutordesk", version, cfg.LogFormat, nil)
	slog.SetDefault(logger)

	logger.Info("starting portal service",
		"listen_addr", cfg.ListenAddr,
		"backend", cfg.Backend,
		"demo_mode", cfg.DemoMode,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.close()

	authSvc, err := auth.NewService(stores.credentials, auth.NewArgon2idHasher())
	if err != nil {
		return err
	}
	otpSvc, err := auth.NewOTPService(stores.challenges, delivery.NewLogSender(logger), cfg.AllowlistEmails(), cfg.DemoMode)
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionManager(stores.sessions)
	if err != nil {
		return err
	}

	adminUserIDs := make(map[string]string, len(cfg.AdminAllowlist))
	for _, entry := range cfg.AdminAllowlist {
		adminUserIDs[strings.ToLower(strings.TrimSpace(entry.Email))] = entry.UserID
	}

	// Start observability server if configured
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool { return true })
		metrics = obsServer.Metrics()

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	apiServer, err := httpapi.NewServer(httpapi.Options{
		Addr:           cfg.ListenAddr,
		AuthService:    authSvc,
		OTPService:     otpSvc,
		SessionManager: sessions,
		AdminUserIDs:   adminUserIDs,
		Metrics:        metrics,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopServers(logger, nil, obsServer)
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Portal service started")
	logger.Info("portal service ready", "api_addr", apiServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	stopServers(logger, apiServer, obsServer)
	logger.Info("shutdown complete")
	return nil
}

// stopServers stops whichever servers were started, API first so
// in-flight requests drain before metrics go away.
func stopServers(logger *slog.Logger, apiServer *httpapi.Server, obsServer *observability.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if apiServer != nil {
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping api server", "error", err)
		}
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
}

// monitorServerErrors cancels the context when a server reports an
// error, so one failing listener shuts the whole process down.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
