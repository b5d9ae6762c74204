package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hongminglow/storefront-be/internal/auth"
	"github.com/hongminglow/storefront-be/internal/config"
	"github.com/hongminglow/storefront-be/internal/metrics"
	"github.com/hongminglow/storefront-be/internal/ratelimit"
	"github.com/hongminglow/storefront-be/internal/storage"
	"github.com/hongminglow/storefront-be/internal/storage/memory"
	"github.com/hongminglow/storefront-be/internal/storage/mongo"
	"github.com/hongminglow/storefront-be/internal/storage/postgres"
)

// app holds the long-lived collaborators shared by serve and create-admin.
type app struct {
	store     storage.UserStore
	authority *auth.Authority
	validator *auth.Validator
	registry  *prometheus.Registry
	redis     *redis.Client
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	logger = logger.With().Timestamp().Str("service", "storefront-be").Logger()
	log.Logger = logger
	return logger
}

func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	limiter, err := a.newLimiter(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	channels, err := auth.DefaultChannels(cfg.AdminCookie, cfg.CustomerCookie, auth.CookieOptions{
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.SessionTTL,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	authMetrics := metrics.NewAuth(a.registry)
	a.authority, err = auth.NewAuthority(auth.AuthorityDeps{
		Store:    store,
		Tokens:   tokens,
		Channels: channels,
		Limiter:  limiter,
		Metrics:  authMetrics,
		Logger:   logger.With().Str("component", "auth").Logger(),
		HashCost: cfg.BcryptCost,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.validator = auth.NewValidator(tokens, channels, authMetrics)
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.UserStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		store, err := postgres.NewUserStore(ctx, cfg.DatabaseURL, cfg.AutoMigrate)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return store, nil
	case config.DriverMongo:
		store, err := mongo.NewUserStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, fmt.Errorf("init mongo: %w", err)
		}
		return store, nil
	case config.DriverMemory:
		log.Warn().Msg("using in-memory user store; accounts are lost on restart")
		return memory.NewUserStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// newLimiter shares login throttling across replicas through Redis when REDIS_URL is set.
func (a *app) newLimiter(cfg config.Config) (ratelimit.Limiter, error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemory(cfg.LoginMaxAttempts, cfg.LoginWindow), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	a.redis = redis.NewClient(opts)
	return ratelimit.NewRedis(a.redis, cfg.LoginMaxAttempts, cfg.LoginWindow), nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}
	if err := a.store.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("close store")
	}
}
