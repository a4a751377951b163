// Package main is the entry point for the BerAuto API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/berauto/backend/internal/auth"
	"github.com/berauto/backend/internal/config"
	"github.com/berauto/backend/internal/handler"
	"github.com/berauto/backend/internal/middleware"
	"github.com/berauto/backend/internal/repo"
	"github.com/berauto/backend/internal/service"
	"github.com/berauto/backend/migrations"
)

// maxBodyBytes caps request bodies. No endpoint accepts uploads, so 1 MiB
// leaves generous headroom for any JSON payload.
const maxBodyBytes = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Services ---------------------------------------------------------
	userRepo := repo.NewUserRepo(pool)
	carRepo := repo.NewCarRepo(pool)
	rentalRepo := repo.NewRentalRepo(pool)
	invoiceRepo := repo.NewInvoiceRepo(pool)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)

	invoiceSvc := service.NewInvoiceService(invoiceRepo, rentalRepo, carRepo)
	rentalSvc := service.NewRentalService(rentalRepo, carRepo, invoiceSvc, logger)
	carSvc := service.NewCarService(carRepo)
	authSvc := service.NewAuthService(userRepo)
	userSvc := service.NewUserService(userRepo)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID → RealIP → SlogLogger → Recoverer → CORS →
	// body cap → session resolution → route authorization.
	// The session resolver must run before the authorizer so role-gated
	// prefixes see the caller's identity.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))
	r.Use(middleware.NewSessionResolver(tokens))
	r.Use(middleware.NewAuthorizer())

	srv := handler.NewServer(rentalSvc, carSvc, authSvc, userSvc, invoiceSvc, tokens, logger)
	srv.RegisterRoutes(r)

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runMigrations applies any pending embedded migrations.
// goose needs database/sql, so this opens a short-lived connection with the
// pgx stdlib driver alongside the pool.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("applied migration", "source", res.Source.Path)
	}
	return nil
}
