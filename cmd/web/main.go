package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/patientor/internal/client"
	"github.com/jwalitptl/patientor/internal/config"
	"github.com/jwalitptl/patientor/internal/handler"
	"github.com/jwalitptl/patientor/internal/handler/patient"
	"github.com/jwalitptl/patientor/internal/router"
	"github.com/jwalitptl/patientor/internal/session"
	"github.com/jwalitptl/patientor/internal/task"
	"github.com/jwalitptl/patientor/pkg/logger"
	"github.com/jwalitptl/patientor/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	}).SetGlobal()

	m := metrics.NewMetrics(cfg.Metrics.Namespace, "", nil)

	// Patients API client
	api := client.New(client.Config{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		MaxFailures: cfg.API.MaxFailures,
		Cooldown:    cfg.API.Cooldown,
	}, m)

	// Handlers
	pages := patient.NewHandler(api, task.NewTracker(m))
	h := handler.NewHandler(api, nil)

	// Sessions
	sessions, err := session.NewManager(session.Config{
		CookieName:      cfg.Session.CookieName,
		Secret:          cfg.Session.Secret,
		IdleTTL:         cfg.Session.IdleTTL,
		MaxAge:          cfg.Session.MaxAge,
		CleanupInterval: cfg.Session.CleanupInterval,
		Secure:          cfg.Session.Secure,
	}, m, pages.Bootstrap)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up sessions")
	}

	// Setup router
	r, err := router.NewRouter(pages, h, sessions, router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RateLimit:      rate.Limit(cfg.RateLimit.RPS),
		RateBurst:      cfg.RateLimit.Burst,
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsPrefix:  cfg.Metrics.Namespace + "_http",
		MaxBodySize:    cfg.Server.MaxBodySize,
		HSTS:           cfg.Server.HSTS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", cfg.API.BaseURL).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
