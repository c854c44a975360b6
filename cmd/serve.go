package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/basakil/brm-chatbot/internal/instance"
	"github.com/basakil/brm-chatbot/internal/server"
)

func (a *app) cmdServe() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s", "server"},
		Short:   "Run the chatbot HTTP service",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lock := instance.NewLock(a.cfg.GetString("instance.lock-file"))
	lockCtx, cancelLock := context.WithTimeout(ctx, 5*time.Second)
	err := lock.Acquire(lockCtx)
	cancelLock()
	if err != nil {
		a.logger.Error("Failed to acquire instance lock", "file", lock.Path(), "error", err)
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			a.logger.Warn("Failed to release instance lock", "error", err)
		}
	}()
	if lock.Path() != "" {
		a.logger.Info("Instance lock acquired", "file", lock.Path())
	}

	serverCfg := a.cfg.GetSubConfig("server")
	srv := server.New(serverCfg, a.cfg, a.logger)

	a.logger.Info("Available endpoints",
		"home", "GET /",
		"chat", "POST /chat",
		"metrics", "GET /metrics",
		"status", "GET /status",
		"health", "GET /healthz")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("Server failed to start", "error", err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Shutdown waits for in-flight requests, including their simulated delay
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		serverCfg.GetSecondsWithDefault("shutdownTimeout", 10))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown error", "error", err)
		return err
	}

	a.logger.Info("Server shutdown complete")
	return nil
}
