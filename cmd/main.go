package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/andressep95/rbac-auth/internal/config"
	"github.com/andressep95/rbac-auth/internal/handler"
	"github.com/andressep95/rbac-auth/internal/handler/middleware"
	"github.com/andressep95/rbac-auth/internal/repository"
	"github.com/andressep95/rbac-auth/internal/repository/memory"
	"github.com/andressep95/rbac-auth/internal/repository/postgres"
	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/hash"
	"github.com/andressep95/rbac-auth/pkg/jwt"
	"github.com/andressep95/rbac-auth/pkg/loginguard"
	"github.com/andressep95/rbac-auth/pkg/metrics"
	"github.com/andressep95/rbac-auth/pkg/validator"
)

type repositories struct {
	users       repository.UserRepository
	roles       repository.RoleRepository
	permissions repository.PermissionRepository
	refresh     repository.RefreshTokenRepository
	audit       repository.AuditLogRepository
	// ping is nil for the in-memory store.
	ping  handler.Pinger
	close func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := initRepositories(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer repos.close()

	// Redis backs the failed-login guard; without it the guard is a no-op.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = initRedis(ctx, cfg)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Redis")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.WithError(err).Warn("Error closing Redis connection")
			}
		}()
		logger.Info("Redis connection established")
	} else {
		logger.Info("Redis disabled, login guard inactive")
	}
	guard := loginguard.New(redisClient, cfg.Auth.MaxFailedLogins, cfg.Auth.LockDuration)

	codec, err := jwt.NewCodec(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize token codec")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	// Initialize services
	validate := validator.NewValidator()
	hasher := hash.NewHasher(hash.DefaultConfig)
	auditService := service.NewAuditService(repos.audit, logger)
	tokenService := service.NewTokenService(codec, repos.refresh, m)
	authService := service.NewAuthService(
		repos.users, repos.roles, repos.permissions,
		tokenService, hasher, guard, auditService, m, logger, cfg.JWT.TokenTTL,
	)
	userService := service.NewUserService(repos.users, repos.roles, hasher, guard, auditService)
	roleService := service.NewRoleService(repos.roles, repos.permissions, repos.users, auditService)
	permissionService := service.NewPermissionService(repos.permissions, repos.users, auditService)
	cleanupService := service.NewCleanupService(repos.refresh, auditService, m, logger, cfg.Cleanup.AuditRetention)

	scheduler, err := cleanupService.Schedule(cfg.Cleanup.Schedule)
	if err != nil {
		logger.WithError(err).Fatal("Failed to schedule cleanup")
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:       "RBAC Auth v1.0",
		CaseSensitive: true,
		ErrorHandler:  handler.NewErrorHandler(logger),
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
	})

	// Global middlewares; Metrics wraps RequestLogger so it sees final statuses.
	app.Use(middleware.Recovery(logger))
	app.Use(middleware.Metrics(m))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.CORS(cfg.Server.AllowOrigins))
	app.Use(middleware.AuthFilter(tokenService, repos.users, repos.roles, m))
	app.Use(middleware.Authorize(
		middleware.AccessRule{Prefix: "/api/permissions", Roles: []string{cfg.Auth.SuperAdminRole}},
		middleware.AccessRule{Prefix: "/api/audit", Roles: []string{cfg.Auth.SuperAdminRole}},
	))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handler.SetupRoutes(
		app,
		handler.NewAuthHandler(authService, userService, tokenService, validate),
		handler.NewUserHandler(userService, tokenService, validate),
		handler.NewRoleHandler(roleService, tokenService, validate),
		handler.NewPermissionHandler(permissionService, tokenService, validate),
		handler.NewAuditHandler(auditService),
		handler.NewHealthHandler(repos.ping, guard),
	)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.WithFields(logrus.Fields{
			"addr":        addr,
			"environment": cfg.Server.Environment,
			"db_driver":   cfg.Database.Driver,
		}).Info("Server starting")
		if err := app.Listen(addr); err != nil {
			logger.WithError(err).Error("Server failed to start")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	<-scheduler.Stop().Done()
	auditService.Wait()

	logger.Info("Server stopped")
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func initRepositories(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*repositories, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:       store.Users(),
			roles:       store.Roles(),
			permissions: store.Permissions(),
			refresh:     store.RefreshTokens(),
			audit:       store.AuditLogs(),
			close:       func() {},
		}, nil
	}

	db, err := initDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("Database migrations applied")

	return &repositories{
		users:       postgres.NewUserRepository(db),
		roles:       postgres.NewRoleRepository(db),
		permissions: postgres.NewPermissionRepository(db),
		refresh:     postgres.NewRefreshTokenRepository(db),
		audit:       postgres.NewAuditLogRepository(db),
		ping:        handler.PingFunc(db.PingContext),
		close: func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Warn("Error closing database connection")
			}
		},
	}, nil
}

// initDB opens the PostgreSQL pool, retrying while the database starts up
func initDB(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", dsn)
		if err == nil {
			break
		}

		logger.WithError(err).Warnf("Failed to connect to database (attempt %d/%d)", i+1, maxRetries)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
