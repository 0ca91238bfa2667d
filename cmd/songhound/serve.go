package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"songhound/internal/app/catalog"
	"songhound/internal/app/interactions"
	"songhound/internal/app/tasks"
	"songhound/internal/cache"
	"songhound/internal/config"
	"songhound/internal/http/middleware"
	"songhound/internal/httpapi"
	"songhound/internal/identity"
	"songhound/internal/moderation"
	"songhound/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	dataStore := store.New(db)
	filter := moderation.New(cfg.Moderation.SensitiveKeywords, logger.With().Str("component", "moderation").Logger())
	logger.Info().Strs("sensitive_keywords", filter.Keywords()).Msg("moderation configured")

	var catalogStore catalog.Store = dataStore
	if cfg.Cache.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		catalogStore = cache.NewCatalogStore(client, dataStore, cfg.Cache.TTL, logger.With().Str("component", "cache").Logger())
		logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("redis read cache enabled")
	}

	verifier := identity.NewVerifier(cfg.Identity.JWTSecret)
	if !verifier.Enabled() {
		logger.Warn().Msg("IDENTITY_JWT_SECRET not set, all requests are anonymous")
	}
	if cfg.Tasks.OrchestratorToken == "" {
		logger.Warn().Msg("ORCHESTRATOR_TOKEN not set, task status updates are refused")
	}

	api := httpapi.New(
		catalog.New(catalogStore, filter),
		tasks.New(dataStore, filter, logger.With().Str("component", "tasks").Logger()),
		interactions.New(dataStore, filter, logger.With().Str("component", "interactions").Logger()),
		logger,
		httpapi.WithHealthCheck(dataStore.Ping),
		httpapi.WithOrchestratorToken(cfg.Tasks.OrchestratorToken),
	)

	var handler http.Handler = api.Routes()
	handler = verifier.Middleware(handler)
	handler = middleware.CORS(cfg.Server.AllowedOrigins)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("songhound API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server exited")
	return nil
}
