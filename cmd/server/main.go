package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/api"
	"github.com/dennisdiepolder/dropboard/internal/auth"
	"github.com/dennisdiepolder/dropboard/internal/cache"
	"github.com/dennisdiepolder/dropboard/internal/config"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/metrics"
	"github.com/dennisdiepolder/dropboard/internal/refresh"
	"github.com/dennisdiepolder/dropboard/internal/roles"
	"github.com/dennisdiepolder/dropboard/internal/storage"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/dennisdiepolder/dropboard/internal/websocket"
	"github.com/dennisdiepolder/dropboard/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Str("source_mode", cfg.SourceMode).
		Str("cache_mode", cfg.CacheMode).
		Str("timezone", cfg.Timezone).
		Msg("starting dropboard server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Role assignments
	store, err := storage.NewStore(ctx, storage.LoadConfig(), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open role store")
	}
	defer store.Close()

	roleService := roles.NewService(store, types.RoleConfig{
		AdminEmails: cfg.AdminEmails,
		UserEmails:  cfg.UserEmails,
	}, log.Logger)
	if err := roleService.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load role assignments")
	}

	if cfg.OIDCIssuer != "" && !cfg.SkipAuth {
		if err := auth.InitJWKS(cfg.OIDCIssuer); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize JWKS")
		}
	}

	// Data sources
	sources, err := buildSources(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create data source")
	}
	sources, closeCache, err := wrapWithCache(ctx, cfg, sources, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create row cache")
	}
	defer closeCache()

	opts := pipelineOptions(cfg)

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	views := cache.NewViewRegistry[*dashboard.View]()

	refresher := refresh.NewRefresher(sources, views, hub, cfg.RefreshInterval, cfg.ViewIdleTimeout, opts, log.Logger)
	go refresher.Start(ctx)

	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)
	handlers := api.Handlers{
		Snapshot: api.NewSnapshotHandler(sources, opts, log.Logger),
		Views:    api.NewViewsHandler(views, sources, opts, cfg.Currency, log.Logger),
		Admin:    api.NewAdminHandler(roleService, refresher, log.Logger),
	}

	authConfig := auth.Config{
		SkipAuth:        cfg.SkipAuth,
		Env:             cfg.Env,
		VerifySignature: cfg.VerifyJWTSignature,
		OIDCIssuer:      cfg.OIDCIssuer,
	}

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(authConfig, roleService, log.Logger))
		r.Get("/ws", wsHandler.ServeHTTP)
		r.Route("/api", handlers.Routes)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the refresher
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"dropboard"}`)
}
