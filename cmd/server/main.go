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

	"genealogy/internal/auth"
	"genealogy/internal/config"
	"genealogy/internal/database"
	"genealogy/internal/handlers"
	"genealogy/internal/logging"
	"genealogy/internal/metrics"
	"genealogy/internal/repository"
	"genealogy/internal/security"
	"genealogy/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New("server", cfg.LogLevel)
	ctx := context.Background()

	// Initialize database with config (supports sqlite, postgres, pgx, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	logger.Info(ctx, "database connection established", "type", cfg.DatabaseType)

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info(ctx, "migrations completed")

	// Initialize repositories
	memberRepo := repository.NewMemberRepository(db)
	clanRepo := repository.NewClanRepository(db)
	marriageRepo := repository.NewMarriageRepository(db)

	// Initialize services
	m := metrics.New()
	opts := service.Options{
		Logger:  logging.New("service", cfg.LogLevel),
		Metrics: m,
	}
	memberService := service.NewMemberService(db, memberRepo, clanRepo, marriageRepo, opts)
	clanService := service.NewClanService(db, clanRepo, opts)
	marriageService := service.NewMarriageService(db, marriageRepo, memberRepo, opts)
	treeService := service.NewTreeService(db, memberRepo, clanRepo, opts)

	// Initialize handlers
	httpLogger := logging.New("http", cfg.LogLevel)
	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	middleware := handlers.NewMiddleware(auth.NewIssuer(cfg.TokenSecret, nil), limiter, httpLogger, m)
	router := handlers.NewRouter(handlers.Handlers{
		Members:   handlers.NewMemberHandler(memberService, httpLogger),
		Clans:     handlers.NewClanHandler(clanService, httpLogger),
		Marriages: handlers.NewMarriageHandler(marriageService, httpLogger),
		Tree:      handlers.NewTreeHandler(treeService, httpLogger),
	}, middleware, db, m)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info(ctx, "server shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info(ctx, "server stopped")
	return nil
}
