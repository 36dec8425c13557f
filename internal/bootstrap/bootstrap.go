// Package bootstrap wires the shared dependencies of the wellbeing binaries
// from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/achievement"
	"github.com/saaga0h/jeeves-wellbeing/internal/events"
	"github.com/saaga0h/jeeves-wellbeing/internal/lock"
	"github.com/saaga0h/jeeves-wellbeing/internal/metrics"
	"github.com/saaga0h/jeeves-wellbeing/internal/prediction"
	"github.com/saaga0h/jeeves-wellbeing/internal/recommend"
	"github.com/saaga0h/jeeves-wellbeing/internal/store"
	"github.com/saaga0h/jeeves-wellbeing/internal/store/pgstore"
	"github.com/saaga0h/jeeves-wellbeing/internal/store/sqlstore"
	"github.com/saaga0h/jeeves-wellbeing/internal/tracker"
	"github.com/saaga0h/jeeves-wellbeing/pkg/config"
	"github.com/saaga0h/jeeves-wellbeing/pkg/llm"
	"github.com/saaga0h/jeeves-wellbeing/pkg/postgres"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

// llmTimeout bounds a single prediction request
const llmTimeout = 60 * time.Second

// Deps are the collaborators shared by the agent and the API
type Deps struct {
	Store   store.Store
	Redis   redis.Client // nil when Redis is unreachable at startup
	Cache   *recommend.Cache
	Tracker *tracker.Service
	Metrics *metrics.Metrics
}

// ParseLogLevel maps a config log level onto slog
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns the text logger every service writes to stdout
func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLogLevel(cfg.LogLevel),
	})).With("service", cfg.ServiceName)
}

// OpenStore connects the configured backend and prepares its schema
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		logger.Info("Opening SQLite store", "path", cfg.SQLitePath)
		return sqlstore.Open(cfg.SQLitePath, logger)

	case config.StoreDriverPostgres:
		logger.Info("Connecting to Postgres store",
			"postgres", fmt.Sprintf("%s:%d/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB))
		client := postgres.NewClient(cfg, logger)
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		st := pgstore.New(client, logger)
		if err := st.Migrate(ctx); err != nil {
			client.Disconnect()
			return nil, err
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// ConnectRedis returns a Redis client, or nil when Redis does not answer.
// Redis only backs locks and the recommendation cache, so the services run
// without it.
func ConnectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) redis.Client {
	client := redis.NewClient(cfg, logger)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		logger.Warn("Redis unavailable, using in-process locks and no cache",
			"redis_host", cfg.RedisAddress(),
			"error", err)
		client.Close()
		return nil
	}
	return client
}

// NewLocker picks the distributed locker when Redis is available
func NewLocker(client redis.Client, cfg *config.Config, logger *slog.Logger) lock.Locker {
	if client == nil {
		return lock.NewKeyedMutex()
	}
	return lock.NewRedisLocker(client, cfg.LockTTL, logger)
}

// New opens the store, connects Redis, and builds the tracker with its
// achievement catalog seeded
func New(ctx context.Context, cfg *config.Config, publisher events.Publisher, logger *slog.Logger) (*Deps, error) {
	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rdb := ConnectRedis(ctx, cfg, logger)
	var cache *recommend.Cache
	if rdb != nil {
		cache = recommend.NewCache(rdb, cfg.RecommendationCacheTTL, logger)
	}

	m := metrics.New()
	svc := tracker.NewService(st, NewLocker(rdb, cfg, logger), achievement.NewRegistry(),
		publisher, m, cfg.UserID, cfg.TrackerMaxRetries, logger)

	catalog, err := achievement.LoadCatalog(cfg.AchievementCatalogPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}
	added, err := svc.SeedAchievements(ctx, catalog)
	if err != nil {
		st.Close()
		return nil, err
	}
	logger.Info("Achievement catalog ready", "achievements", len(catalog), "added", added)

	return &Deps{Store: st, Redis: rdb, Cache: cache, Tracker: svc, Metrics: m}, nil
}

// NewPredictor returns the LLM-backed activity predictor, or nil when no
// endpoint is configured
func NewPredictor(cfg *config.Config, logger *slog.Logger) *prediction.Predictor {
	if cfg.LLMEndpoint == "" {
		return nil
	}
	client := llm.NewOllamaClient(cfg.LLMEndpoint, llmTimeout, logger)
	return prediction.NewPredictor(client, cfg.LLMModel, llm.NewMetricsCollector(logger), logger)
}

// Close releases Redis; the store is closed by its owner
func (d *Deps) Close() {
	if d.Redis != nil {
		d.Redis.Close()
	}
}
