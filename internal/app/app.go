// Package app assembles the collaboration server from its adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	collabhttp "github.com/eventsync/server/internal/adapter/inbound/http/collaboration"
	s3adapter "github.com/eventsync/server/internal/adapter/outbound/s3"
	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/infra/schedule"
	"github.com/eventsync/server/internal/port/inbound"
	"github.com/eventsync/server/internal/port/outbound"
	"github.com/eventsync/server/internal/shared/cache"
	"github.com/eventsync/server/internal/shared/config"
	"github.com/eventsync/server/internal/utils/metrics"
	"github.com/eventsync/server/internal/utils/middleware"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config          *config.Config
	Logger          *zap.Logger
	DB              *gorm.DB
	Redis           goredis.UniversalClient
	HTTPClient      *http.Client
	RateLimiter     outbound.RateLimiterPort
	MetricsRegistry *prometheus.Registry
	Metrics         *metrics.Metrics
	EventArchive    *s3adapter.EventArchive
	EventBus        *events.Bus

	CollaborationDomain inbound.CollaborationDomain
	TokenValidator      *middleware.TokenValidator
	Sweeper             *schedule.Sweeper
	CollabHandler       *collabhttp.Handler
}

// newDependencies mirrors InitializeDependencies. Cleanups run in reverse
// order of construction.
func newDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	log, logCleanup, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, logCleanup)

	db, dbCleanup, err := ProvideDatabase(cfg, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, dbCleanup)

	redis, redisCleanup := ProvideRedisClient(cfg, log)
	cleanups = append(cleanups, redisCleanup)

	hc := ProvideHTTPClient(cfg)
	reg := ProvideMetricsRegistry()
	m := ProvideMetrics(cfg, reg)

	archive, err := ProvideEventArchive(cfg)
	if err != nil {
		return fail(err)
	}
	bus, busCleanup := ProvideEventBus(cfg, log, redis, archive, m)
	cleanups = append(cleanups, busCleanup)

	storage, err := ProvideCollaborationStorage(cfg, db, log)
	if err != nil {
		return fail(err)
	}
	domain := ProvideCollaborationDomain(
		cfg,
		storage,
		ProvideEligibility(cfg, hc),
		ProvideDirectory(cfg, hc),
		ProvideEventConfig(cfg, hc),
		bus,
		log,
	)

	return &Dependencies{
		Config:              cfg,
		Logger:              log,
		DB:                  db,
		Redis:               redis,
		HTTPClient:          hc,
		RateLimiter:         ProvideRateLimiter(cfg, redis),
		MetricsRegistry:     reg,
		Metrics:             m,
		EventArchive:        archive,
		EventBus:            bus,
		CollaborationDomain: domain,
		TokenValidator:      ProvideTokenValidator(cfg),
		Sweeper:             ProvideSweeper(domain, m, log),
		CollabHandler:       collabhttp.NewHandler(domain),
	}, cleanup, nil
}

// App is the collaboration server.
type App struct {
	deps    *Dependencies
	router  *gin.Engine
	cleanup func()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	deps, cleanup, err := newDependencies(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{deps: deps, cleanup: cleanup}
	app.router = app.setupRouter()
	return app, nil
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.deps.Logger
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	cfg := a.deps.Config
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.deps.Logger))
	r.Use(middleware.Metrics(a.deps.Metrics))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	r.Use(middleware.CORS(corsCfg))

	r.GET("/health", a.health)
	if a.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.deps.MetricsRegistry, promhttp.HandlerOpts{})))
	}

	// Auth runs first so rate limiting and idempotency are keyed by actor.
	a.deps.CollabHandler.RegisterRoutes(r.Group("/api/v1"),
		middleware.Auth(a.deps.TokenValidator),
		middleware.RateLimit(a.deps.RateLimiter, middleware.RateLimitConfig{
			Limit:  cfg.RateLimit.Limit,
			Window: cfg.RateLimit.Window,
		}, a.deps.Logger),
		middleware.Idempotency(a.deps.Redis, middleware.DefaultIdempotencyConfig()),
	)

	return r
}

// health reports liveness of the backing stores.
func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if a.deps.DB != nil {
		if sqlDB, err := a.deps.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "down"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	switch err := cache.Ping(ctx, a.deps.Redis); {
	case errors.Is(err, cache.ErrDisabled):
		checks["redis"] = "disabled"
	case err != nil:
		checks["redis"] = "degraded"
	default:
		checks["redis"] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// Run starts the sweeper and the HTTP server and blocks until ctx is done,
// then shuts both down.
func (a *App) Run(ctx context.Context) error {
	cfg := a.deps.Config
	log := a.deps.Logger

	if err := a.deps.Sweeper.Start(cfg.Collaboration.InvitationSweep); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      a.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info("shutting down server")
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.deps.Sweeper.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// Stop releases all resources.
func (a *App) Stop() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}
