package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	collabhttp "github.com/eventsync/server/internal/adapter/inbound/http/collaboration"
	"github.com/eventsync/server/internal/adapter/outbound/campus"
	"github.com/eventsync/server/internal/adapter/outbound/memory"
	"github.com/eventsync/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/eventsync/server/internal/adapter/outbound/redis"
	s3adapter "github.com/eventsync/server/internal/adapter/outbound/s3"
	"github.com/eventsync/server/internal/domain/collaboration"
	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/infra/httpclient"
	"github.com/eventsync/server/internal/infra/schedule"
	"github.com/eventsync/server/internal/port/inbound"
	"github.com/eventsync/server/internal/port/outbound"
	"github.com/eventsync/server/internal/shared/cache"
	"github.com/eventsync/server/internal/shared/config"
	"github.com/eventsync/server/internal/shared/database"
	"github.com/eventsync/server/internal/shared/logger"
	"github.com/eventsync/server/internal/utils/metrics"
	"github.com/eventsync/server/internal/utils/middleware"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideRateLimiter,
	ProvideMetricsRegistry,
	ProvideMetrics,
	ProvideEventArchive,
	ProvideEventBus,
	wire.Bind(new(outbound.EventPublisherPort), new(*events.Bus)),
)

// ProvideLogger creates the zap logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideDatabase opens Postgres. It returns nil when teams are kept in memory.
func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	if cfg.Collaboration.StorageDriver != "postgres" {
		return nil, func() {}, nil
	}
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional; failures are
// logged and the features that need it are disabled.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func()) {
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn("redis connection failed, continuing without redis", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = cache.Close(client) }
}

// ProvideHTTPClient creates the shared client for campus services.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	hc := httpclient.DefaultConfig()
	if cfg.Services.Timeout > 0 {
		hc.Timeout = cfg.Services.Timeout
	}
	return httpclient.New(hc)
}

// ProvideRateLimiter creates a rate limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config, redis goredis.UniversalClient) outbound.RateLimiterPort {
	if !cfg.RateLimit.Enabled || redis == nil {
		return nil
	}
	return redisadapter.NewRateLimiter(redis)
}

// ProvideMetricsRegistry creates the registry served on /metrics.
func ProvideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates application metrics, or nil when disabled.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New(cfg.Metrics.Namespace, reg)
}

// ProvideEventArchive creates the S3 event archive, or nil without a bucket.
func ProvideEventArchive(cfg *config.Config) (*s3adapter.EventArchive, error) {
	if cfg.Archive.Bucket == "" {
		return nil, nil
	}
	client, err := s3adapter.NewClient(context.Background(), &cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("init event archive: %w", err)
	}
	return s3adapter.NewEventArchive(client, cfg.Archive.Bucket, cfg.Archive.Prefix), nil
}

// ProvideEventBus creates the event bus, registers the notification bridge,
// archive and metrics handlers that are configured, and starts background
// delivery. The cleanup drains queued events.
func ProvideEventBus(
	cfg *config.Config,
	log *zap.Logger,
	redis goredis.UniversalClient,
	archive *s3adapter.EventArchive,
	m *metrics.Metrics,
) (*events.Bus, func()) {
	bus := events.NewBus(log.Named("events"))
	bus.SetHandlerTimeout(cfg.Collaboration.NotificationTimeout)
	if redis != nil {
		bus.Register(redisadapter.NewStreamNotifier(redis, cfg.Collaboration.NotificationStream, cfg.Collaboration.NotificationMaxLen))
	} else {
		log.Warn("redis not configured, collaboration notifications are only logged")
		bus.Register(events.NewHandlerFunc("log-notifier", nil, func(_ context.Context, e events.Event) error {
			log.Info("collaboration event",
				zap.String("type", e.EventType()),
				zap.String("team_id", e.AggregateID().String()),
				zap.Strings("recipients", e.Recipients()),
			)
			return nil
		}))
	}
	if archive != nil {
		bus.Register(archive)
	}
	if m != nil {
		bus.Register(m.EventCounter())
	}
	bus.Start(cfg.Collaboration.EventQueueSize)

	drain := cfg.Server.ShutdownTimeout
	if drain <= 0 {
		drain = 5 * time.Second
	}
	return bus, func() {
		ctx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		if err := bus.Close(ctx); err != nil {
			log.Warn("event bus did not drain", zap.Error(err))
		}
	}
}

// ===== Collaboration Providers =====

// CollaborationSet provides the collaboration domain and its adapters.
var CollaborationSet = wire.NewSet(
	ProvideCollaborationStorage,
	ProvideEligibility,
	ProvideDirectory,
	ProvideEventConfig,
	ProvideCollaborationDomain,
	ProvideTokenValidator,
	ProvideSweeper,
	collabhttp.NewHandler,
)

// CollaborationStorage groups the persistence ports of the collaboration domain.
type CollaborationStorage struct {
	Teams       outbound.TeamDatabasePort
	Invitations outbound.InvitationDatabasePort
	Tx          outbound.CollaborationTransactionPort
}

// ProvideCollaborationStorage selects Postgres or the in-memory store.
func ProvideCollaborationStorage(cfg *config.Config, db *gorm.DB, log *zap.Logger) (*CollaborationStorage, error) {
	switch cfg.Collaboration.StorageDriver {
	case "memory":
		log.Warn("using in-memory team storage; data is lost on restart")
		store := memory.NewStore()
		return &CollaborationStorage{Teams: store.Teams(), Invitations: store.Invitations(), Tx: store}, nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres storage selected but no database connection")
		}
		return &CollaborationStorage{
			Teams:       postgres.NewTeamAdapter(db),
			Invitations: postgres.NewTeamInvitationAdapter(db),
			Tx:          postgres.NewCollaborationTransactionAdapter(db),
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Collaboration.StorageDriver)
	}
}

func breakerConfig(cfg *config.Config) campus.BreakerConfig {
	return campus.BreakerConfig{
		FailureThreshold: cfg.Services.FailureThreshold,
		OpenTimeout:      cfg.Services.OpenTimeout,
	}
}

// ProvideEligibility creates the eligibility service adapter.
func ProvideEligibility(cfg *config.Config, hc *http.Client) outbound.EligibilityPort {
	return campus.NewEligibilityAdapter(campus.NewClient("eligibility", cfg.Services.EligibilityURL, cfg.Services.APIKey, hc, breakerConfig(cfg)))
}

// ProvideDirectory creates the student directory adapter.
func ProvideDirectory(cfg *config.Config, hc *http.Client) outbound.StudentDirectoryPort {
	return campus.NewDirectoryAdapter(campus.NewClient("directory", cfg.Services.DirectoryURL, cfg.Services.APIKey, hc, breakerConfig(cfg)))
}

// ProvideEventConfig creates the event configuration adapter.
func ProvideEventConfig(cfg *config.Config, hc *http.Client) outbound.EventConfigPort {
	return campus.NewEventConfigAdapter(campus.NewClient("event-config", cfg.Services.EventConfigURL, cfg.Services.APIKey, hc, breakerConfig(cfg)))
}

// ProvideCollaborationDomain creates the collaboration domain.
func ProvideCollaborationDomain(
	cfg *config.Config,
	storage *CollaborationStorage,
	eligibility outbound.EligibilityPort,
	directory outbound.StudentDirectoryPort,
	eventConfig outbound.EventConfigPort,
	publisher outbound.EventPublisherPort,
	log *zap.Logger,
) inbound.CollaborationDomain {
	return collaboration.NewDomain(
		storage.Teams,
		storage.Invitations,
		storage.Tx,
		eligibility,
		directory,
		eventConfig,
		publisher,
		&collaboration.Config{
			InvitationExpiry:     cfg.Collaboration.InvitationExpiry,
			ExternalCheckTimeout: cfg.Collaboration.ExternalCheckTimeout,
		},
		log.Named("collaboration"),
	)
}

// ProvideTokenValidator creates the bearer token validator.
func ProvideTokenValidator(cfg *config.Config) *middleware.TokenValidator {
	return middleware.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
}

// ProvideSweeper creates the invitation expiry sweeper.
func ProvideSweeper(domain inbound.CollaborationDomain, m *metrics.Metrics, log *zap.Logger) *schedule.Sweeper {
	var recorder schedule.SweepRecorder
	if m != nil {
		recorder = m
	}
	return schedule.NewSweeper(domain, recorder, log)
}
