package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/consult-chat/internal/config"
	"github.com/wolfman30/consult-chat/internal/identity"
	"github.com/wolfman30/consult-chat/internal/notify"
	"github.com/wolfman30/consult-chat/internal/session"
	"github.com/wolfman30/consult-chat/internal/siteinfo"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

const (
	backendMemory = "memory"
	backendFile   = "file"
	backendRedis  = "redis"
)

// NeedsRedis reports whether any configured backend is Redis.
func NeedsRedis(cfg *appconfig.Config) bool {
	return cfg != nil && (cfg.SessionStore == backendRedis || cfg.NotifyStore == backendRedis)
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the session backend. A Redis backend without a
// client falls back to memory.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) session.Store {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.SessionStore {
	case backendRedis:
		if redisClient != nil {
			logger.Info("session store: redis", "ttl", cfg.SessionTTL.String())
			return session.NewRedisStore(redisClient, cfg.SessionTTL)
		}
		logger.Warn("session store: redis requested but unavailable, using memory")
	case backendMemory, "":
	default:
		logger.Warn("session store: unknown backend, using memory", "backend", cfg.SessionStore)
	}
	return session.NewMemoryStore()
}

// BuildNotifyStore picks the notification timestamp backend.
func BuildNotifyStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (notify.TimestampStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.NotifyStore {
	case backendFile:
		store, err := notify.NewFileStore(cfg.NotifyStorePath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: notify file store: %w", err)
		}
		logger.Info("notify store: file", "path", cfg.NotifyStorePath)
		return store, nil
	case backendRedis:
		if redisClient != nil {
			logger.Info("notify store: redis")
			return notify.NewRedisStore(redisClient, cfg.NotifyWindow), nil
		}
		logger.Warn("notify store: redis requested but unavailable, using memory")
	case backendMemory, "":
	default:
		logger.Warn("notify store: unknown backend, using memory", "backend", cfg.NotifyStore)
	}
	return notify.NewMemoryStore(), nil
}

// BuildSiteInfo loads the site file, if any, and applies env overrides.
// A broken file is logged and the defaults are used.
func BuildSiteInfo(cfg *appconfig.Config, logger *logging.Logger) siteinfo.SiteInfo {
	if logger == nil {
		logger = logging.Default()
	}
	info := siteinfo.Default()
	if path := strings.TrimSpace(cfg.SiteInfoPath); path != "" {
		loaded, err := siteinfo.Load(path)
		if err != nil {
			logger.Error("failed to load site info, using defaults", "path", path, "error", err)
		} else {
			info = loaded
		}
	}
	return info.Apply(siteinfo.Overrides{
		Website: cfg.SiteWebsite,
		Phone:   cfg.SitePhone,
		Email:   cfg.SiteEmail,
		Booking: cfg.SiteBookingURL,
	})
}

// BuildIdentityResolver parses the configured strategy, defaulting to
// ip_ua on bad input.
func BuildIdentityResolver(cfg *appconfig.Config, logger *logging.Logger) *identity.Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	strategy, err := identity.ParseStrategy(cfg.IdentityStrategy)
	if err != nil {
		logger.Warn("invalid identity strategy, using default", "value", cfg.IdentityStrategy, "error", err)
		strategy = identity.StrategyIPUserAgent
	}
	return identity.NewResolver(strategy)
}
