package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/orgward/orgward/internal/app"
	"github.com/orgward/orgward/internal/auth"
	"github.com/orgward/orgward/internal/authz"
	"github.com/orgward/orgward/internal/departments"
	depthttp "github.com/orgward/orgward/internal/departments/http"
	"github.com/orgward/orgward/internal/observability"
	"github.com/orgward/orgward/internal/orgunits"
	"github.com/orgward/orgward/internal/permissions"
	"github.com/orgward/orgward/internal/platform/cache"
	"github.com/orgward/orgward/internal/platform/db"
	"github.com/orgward/orgward/internal/rbac"
	"github.com/orgward/orgward/internal/roles"
	"github.com/orgward/orgward/internal/shared"
	"github.com/orgward/orgward/internal/users"
	"github.com/orgward/orgward/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "orgward_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	registry := permissions.NewRegistry()
	permissions.RegisterDefaults(registry)

	deptRepo := departments.NewRepository(pool)
	tree := departments.NewTree(deptRepo)

	roleRepo := rbac.NewRepository(pool)
	resolver := rbac.NewResolver(roleRepo)

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo, tree, logger)

	metrics := observability.NewMetrics()
	engine := authz.NewEngine(deptRepo, tree, resolver, logger, metrics)

	rbacMiddleware := rbac.Middleware{Resolver: resolver, Subjects: userService, Logger: logger}

	deptService := depthttp.NewService(deptRepo, tree, engine, logger)
	deptHandler := depthttp.NewHandler(logger, deptService, userService)

	roleService := roles.NewService(roleRepo, logger)
	roleHandler := roles.NewHandler(logger, roleService, userService, rbacMiddleware)

	userHandler := users.NewHandler(logger, userService, rbacMiddleware)

	orgUnitRepo := orgunits.NewRepository(pool)
	orgUnitService := orgunits.NewService(orgUnitRepo, deptRepo, userRepo, logger)
	orgUnitHandler := orgunits.NewHandler(logger, orgUnitService, userService, rbacMiddleware)

	authHandler := auth.NewHandler(logger, userService, sessionManager)
	permHandler := permissions.NewHandler(registry)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, rbacMiddleware, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        authHandler,
		DepartmentsHandler: deptHandler,
		RolesHandler:       roleHandler,
		UsersHandler:       userHandler,
		OrgUnitsHandler:    orgUnitHandler,
		PermissionsHandler: permHandler,
		JobsHandler:        jobHandler,
		Pool:               pool,
		Redis:              redisClient,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
