package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linear-board-sync/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the update proxy",
	Long: `Run the HTTP proxy used by the board page. It answers CORS preflight,
GET /health and POST /update, forwarding moves to Linear with the configured
API key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	config, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !config.HasAPIKey() {
		// Not fatal: every non-preflight request reports the configuration error
		logger.Warn("LINEAR_API_KEY is not configured - update requests will fail")
	}

	linearService := services.NewLinearService(config, logger)
	cache := services.NewStatusCache(time.Duration(config.Linear.StatusCacheTTLSeconds) * time.Second)
	resolver := services.NewStateResolver(linearService, cache, logger)
	forwarder := services.NewMutationForwarder(linearService, resolver, logger)
	router := services.NewRouter(config, forwarder, resolver, cache, logger)

	upstreamTimeout := time.Duration(config.Linear.TimeoutSeconds) * time.Second
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      upstreamTimeout*2 + 5*time.Second, // Room for the state lookup and the mutation
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.Int("port", config.Server.Port), zap.Bool("per_request_status_cache", cache.PerRequest()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-stop:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
