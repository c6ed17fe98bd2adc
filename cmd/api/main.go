package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cognitopkg "github.com/jaekwang-park/task-api/internal/cognito"
	"github.com/jaekwang-park/task-api/internal/config"
	taskhttp "github.com/jaekwang-park/task-api/internal/http"
	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/repository"
	"github.com/jaekwang-park/task-api/internal/scheduler"
	"github.com/jaekwang-park/task-api/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	rolloverTimeout = 2 * time.Minute
	rolloverJobName = "recurring-rollover"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

// stores bundles the repositories for the configured backend. db is nil for
// the memory backend.
type stores struct {
	db    *sql.DB
	tasks repository.TaskRepository
	users repository.UserRepository
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return stores{
			tasks: repository.NewMemoryTask(),
			users: repository.NewMemoryUser(),
		}, nil
	}

	db, err := repository.NewDB(ctx, cfg.DB.DSN(), repository.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return stores{}, err
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return stores{}, err
	}
	logger.Info("database connected", "host", cfg.DB.Host, "name", cfg.DB.Name)

	return stores{
		db:    db,
		tasks: repository.NewPostgresTask(db),
		users: repository.NewPostgresUser(db),
	}, nil
}

// userResolver adapts UserService to the middleware's resolver contract.
func userResolver(users *service.UserService) middleware.UserResolver {
	return middleware.UserResolverFunc(func(ctx context.Context, sub string) (string, error) {
		id, err := users.ResolveUserID(ctx, sub)
		switch {
		case err == nil:
			return id, nil
		case errors.Is(err, service.ErrNotFound):
			return "", middleware.ErrUserNotFound
		case errors.Is(err, service.ErrUnavailable):
			return "", fmt.Errorf("%w: %w", middleware.ErrUserStoreUnavailable, err)
		default:
			return "", err
		}
	})
}

func run(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"auth_dev_mode", cfg.AuthDevMode,
		"log_level", cfg.LogLevel,
		"storage", cfg.StorageBackend,
		"admin_reset", cfg.Admin.ResetEnabled,
	)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	// Services
	taskSvc := service.NewTaskService(st.tasks)
	userSvc := service.NewUserService(st.users)

	// Cognito client + Auth service
	var authSvc *service.AuthService
	if cfg.Cognito.AppClientID != "" {
		cognitoClient, err := cognitopkg.NewAWSClient(
			ctx,
			cfg.Cognito.Region,
			cfg.Cognito.AppClientID,
			cfg.Cognito.AppClientSecret,
		)
		if err != nil {
			return err
		}
		authSvc = service.NewAuthService(cognitoClient, st.users)
		logger.Info("cognito client initialized", "region", cfg.Cognito.Region)
	} else {
		logger.Warn("cognito client not initialized: COGNITO_APP_CLIENT_ID not set")
	}

	// Auth middleware
	authCfg := middleware.AuthConfig{
		DevMode: cfg.AuthDevMode,
	}
	if !cfg.AuthDevMode {
		jwksURL := middleware.CognitoJWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.JWKSClient = middleware.NewJWKSClient(jwksURL)
		authCfg.Issuer = middleware.CognitoIssuer(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.AppClientID = cfg.Cognito.AppClientID
		authCfg.UserResolver = userResolver(userSvc)
	}
	auth, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	// Router
	routerOpts := taskhttp.RouterOptions{CookieSecure: cfg.CookieSecure}
	if st.db != nil {
		routerOpts.DB = st.db
	}
	if cfg.Admin.ResetEnabled {
		routerOpts.AdminToken = cfg.Admin.Token
		logger.Warn("admin reset endpoint enabled")
	}
	router := taskhttp.NewRouter(taskhttp.Services{
		Tasks: taskSvc,
		Auth:  authSvc,
		Users: userSvc,
	}, routerOpts)

	// Recurring rollover
	sched := scheduler.New(logger, time.UTC, rolloverTimeout)
	if cfg.RecurringSchedule != "" {
		if _, err := sched.Add(rolloverJobName, cfg.RecurringSchedule, func(ctx context.Context) error {
			_, err := taskSvc.RolloverRecurring(ctx)
			return err
		}); err != nil {
			return err
		}
		sched.Start()
		logger.Info("scheduler started", "job", rolloverJobName, "schedule", cfg.RecurringSchedule)
	}

	// HTTP Server
	srv := taskhttp.NewServer(taskhttp.ServerConfig{
		Port:        cfg.ServerPort,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        auth,
	}, logger, router)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler did not stop cleanly", "error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
