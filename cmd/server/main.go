package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"strata/internal/access"
	"strata/internal/auth"
	"strata/internal/config"
	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/repositories"
	"strata/internal/handler"
	"strata/internal/httputil"
	"strata/internal/middleware"
	"strata/internal/repository/postgres"
	"strata/internal/service"
	"strata/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	repoCfg := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	nodeRepo := postgres.NewNodeRepository(repoCfg)
	groupRepo := postgres.NewGroupRepository(repoCfg)
	principalRepo := postgres.NewPrincipalRepository(repoCfg)
	txManager := postgres.NewTransactionManager(pool, logger)

	registry, err := access.NewRegistry()
	if err != nil {
		logger.Error("clearance registry failed to load", "error", err)
		os.Exit(1)
	}
	evaluator := access.NewEvaluator(registry)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, logger)
	if err != nil {
		logger.Error("token manager setup failed", "error", err)
		os.Exit(1)
	}

	blobs, err := storage.New(storage.Config{Type: cfg.BlobStoreType, Root: cfg.BlobStoreRoot})
	if err != nil {
		logger.Error("blob store setup failed", "error", err)
		os.Exit(1)
	}

	nodeSvc := service.NewNodeService(nodeRepo, txManager, blobs, evaluator, registry, logger)
	listingSvc := service.NewListingService(nodeRepo, evaluator, logger)
	groupSvc := service.NewGroupService(groupRepo, principalRepo, txManager, logger)
	accountSvc := service.NewAccountService(principalRepo, groupRepo, nodeSvc, tokens, registry, logger)

	if err := seedAdmin(ctx, principalRepo, cfg, logger); err != nil {
		logger.Error("admin seed failed", "error", err)
		os.Exit(1)
	}

	nodeHandler := handler.NewNodeHandler(nodeSvc, listingSvc, logger)
	groupHandler := handler.NewGroupHandler(groupSvc, logger)
	authHandler := handler.NewAuthHandler(accountSvc, logger)
	adminHandler := handler.NewAdminHandler(accountSvc, logger)

	authMW := middleware.Auth(tokens, principalRepo, logger)
	protected := func(h http.HandlerFunc) http.Handler {
		return authMW(h)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/users", protected(authHandler.ListUsers))
	mux.Handle("GET /api/auth/me", protected(authHandler.Me))

	mux.Handle("GET /api/files", protected(nodeHandler.List))
	mux.Handle("POST /api/files/upload", protected(nodeHandler.Upload))
	mux.Handle("POST /api/files/folder", protected(nodeHandler.CreateFolder))
	mux.Handle("GET /api/files/{id}", protected(nodeHandler.Get))
	mux.Handle("PUT /api/files/{id}", protected(nodeHandler.Update))
	mux.Handle("DELETE /api/files/{id}", protected(nodeHandler.Delete))
	mux.Handle("GET /api/files/download/{id}", protected(nodeHandler.Download))
	mux.Handle("GET /api/files/preview/{id}", protected(nodeHandler.Preview))

	mux.Handle("GET /api/groups", protected(groupHandler.List))
	mux.Handle("POST /api/groups", protected(groupHandler.Create))
	mux.Handle("PUT /api/groups/{id}", protected(groupHandler.Update))
	mux.Handle("DELETE /api/groups/{id}", protected(groupHandler.Delete))

	mux.Handle("PUT /api/admin/users/{id}", protected(adminHandler.UpdateUser))
	mux.Handle("DELETE /api/admin/users/{id}", protected(adminHandler.DeleteUser))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	root := corsHandler.Handler(middleware.Recovery(logger)(mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
}

// seedAdmin guarantees one admin account exists so a fresh deployment can
// be administered immediately. An existing account is left untouched.
func seedAdmin(ctx context.Context, principals repositories.PrincipalRepository, cfg *config.Config, logger *slog.Logger) error {
	_, err := principals.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.Principal{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Position:     models.PositionDirector,
	}
	if err := principals.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("admin account created", "username", cfg.AdminUsername)
	return nil
}
