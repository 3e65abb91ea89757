// Package main is the entrypoint for the user API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devops-challenge/userapi/internal/cache"
	"github.com/devops-challenge/userapi/internal/config"
	"github.com/devops-challenge/userapi/internal/handler"
	"github.com/devops-challenge/userapi/internal/logger"
	"github.com/devops-challenge/userapi/internal/metrics"
	"github.com/devops-challenge/userapi/internal/middleware"
	"github.com/devops-challenge/userapi/internal/repository"
	"github.com/devops-challenge/userapi/internal/server"
	"github.com/devops-challenge/userapi/internal/service"
)

const serviceName = "userapi"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.LogFormat, cfg.LogLevel)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", "error", logger.SanitizeError(err, cfg.DatabaseURL, cfg.RedisURL))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info("startup", "version", version, "env", cfg.AppEnv)

	// Reflect the user table before the pool exists so a missing migration
	// stops startup.
	schema, err := repository.ReflectUserTable(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error(
			"failed to reflect user table",
			slog.String("error", logger.SanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", logger.RedactURL(cfg.DatabaseURL)),
		)
		return err
	}
	log.Info("reflected user table", "table", schema.Name, "columns", schema.ColumnNames())

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		log.Error(
			"failed to connect to database",
			slog.String("error", logger.SanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", logger.RedactURL(cfg.DatabaseURL)),
		)
		return err
	}
	log.Info("connected to database", "max_conns", cfg.DBMaxConns)

	// Initialize cache
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, serviceName+":")
		if err != nil {
			repo.Close()
			log.Error(
				"failed to connect to Redis",
				slog.String("error", logger.SanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", logger.RedactURL(cfg.RedisURL)),
			)
			return err
		}
		log.Info("connected to Redis")
	} else {
		log.Warn("REDIS_URL not set, rate limiting disabled")
	}

	// Initialize metrics
	var (
		recorder metrics.Recorder = metrics.NewNoop()
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		prom := metrics.NewPrometheus()
		recorder = prom
		gatherer = prom.Gatherer()
	}

	// Initialize services
	userService := service.NewUserService(service.RepositoryStore{Repo: repo}, recorder)

	r := setupRouter(cfg, log, repo, cacheClient, userService, recorder, gatherer)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, log)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	log.Info("starting server",
		"version", version,
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"rate_limit", cfg.RateLimitActive(),
		"metrics", cfg.MetricsEnabled,
	)

	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info("shutdown")
	return nil
}

// globalMiddleware is the chain applied to every route, outermost first.
// Logger and Metrics sit outside Recoverer so a recovered panic is still
// logged and counted as a 500.
func globalMiddleware(cfg *config.Config, log *slog.Logger, recorder metrics.Recorder) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimiddleware.RealIP,
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Metrics(recorder),
		middleware.Recoverer(log),
		middleware.Security(middleware.SecurityConfig{HSTS: cfg.IsProduction()}),
		middleware.MaxBodySize(cfg.MaxRequestBodySize),
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	cfg *config.Config,
	log *slog.Logger,
	repo *repository.Repository,
	cacheClient *cache.Cache,
	userService *service.UserService,
	recorder metrics.Recorder,
	gatherer prometheus.Gatherer,
) *chi.Mux {
	h := handler.New(serviceName, version)
	userHandler := handler.NewUserHandler(userService, log, cfg.PublicBaseURL)
	metricsHandler := handler.NewMetricsHandler(gatherer)

	// Interfaces stay nil when Redis is not configured.
	var (
		cacheCheck handler.HealthChecker
		limiter    middleware.IPLimiter
	)
	if cacheClient != nil {
		cacheCheck = cacheClient
		limiter = cacheClient
	}
	healthHandler := handler.NewHealthHandler(repo, cacheCheck)

	r := chi.NewRouter()
	r.Use(globalMiddleware(cfg, log, recorder)...)

	r.Get("/", h.Info)
	r.Get("/health", healthHandler.Health)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	createLimit := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  log,
		Limiter: limiter,
		Metrics: recorder,
		Enabled: cfg.RateLimitActive(),
		Scope:   "create_user",
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	})

	r.Get("/v1/users", userHandler.List)
	r.With(createLimit).Post("/v1/users", userHandler.Create)

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
