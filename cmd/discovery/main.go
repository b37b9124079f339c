package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selfadvocacy/discovery/internal/config"
	dbRedis "github.com/selfadvocacy/discovery/internal/db/redis"
	"github.com/selfadvocacy/discovery/internal/db/typesense"
	"github.com/selfadvocacy/discovery/internal/domain/search/mode"
	logpkg "github.com/selfadvocacy/discovery/internal/logger"
	"github.com/selfadvocacy/discovery/internal/metrics"
	profilerepo "github.com/selfadvocacy/discovery/internal/repository/profile"
	"github.com/selfadvocacy/discovery/internal/repository/profileindex"
	searchrepo "github.com/selfadvocacy/discovery/internal/repository/search"
	"github.com/selfadvocacy/discovery/internal/repository/tiercache"
	chiTransport "github.com/selfadvocacy/discovery/internal/transport/chi"
	"github.com/selfadvocacy/discovery/internal/version"
	discoveryuc "github.com/selfadvocacy/discovery/internal/usecase/discovery"
	healthuc "github.com/selfadvocacy/discovery/internal/usecase/health"
	indexeruc "github.com/selfadvocacy/discovery/internal/usecase/indexer"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting discovery API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
		zap.String("profiles_driver", cfg.Profiles.Driver),
	)

	ctx := context.Background()
	metrics.RegisterDiscoveryMetrics()

	// Redis backs the tier cache and, with the redis driver, the index itself.
	var store *dbRedis.Store
	if cfg.NeedsRedis() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
	}

	gdb, err := profilerepo.Open(cfg.Profiles.Driver, cfg.Profiles.DSN)
	if err != nil {
		logger.Fatal("Failed to open profile store", zap.Error(err))
	}
	profiles := profilerepo.New(gdb)

	// Search index
	var (
		index      *searchrepo.Repo
		indexPing  healthuc.Pinger
		reindexer  chiTransport.Reindexer
		indexerSvc *indexeruc.Service
	)
	switch cfg.Index.Driver {
	case config.IndexTypesense:
		ts, err := typesense.NewClient(typesense.Config{
			BaseURL: cfg.Index.URL,
			APIKey:  cfg.Index.APIKey,
			Timeout: time.Duration(cfg.Index.TimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create typesense client", zap.Error(err))
		}
		index = searchrepo.New(ts, searchrepo.Config{
			Index:   cfg.Index.Name,
			Backend: config.IndexTypesense,
		})
		indexPing = ts
	default:
		index = searchrepo.New(store, searchrepo.Config{
			Index:     cfg.Index.Name,
			KeyPrefix: cfg.Index.KeyPrefix,
			Backend:   config.IndexRedis,
		})
		indexPing = store

		sink := profileindex.New(store, profileindex.Config{
			Index:     cfg.Index.Name,
			KeyPrefix: cfg.Index.KeyPrefix,
		})
		indexerSvc = indexeruc.New(profiles, sink, logpkg.Component(logger, "indexer")).
			WithBatchSize(cfg.Indexer.BatchSize)
		reindexer = indexerSvc

		created, err := sink.EnsureIndex(ctx)
		if err != nil {
			logger.Fatal("Failed to ensure search index", zap.Error(err))
		}
		logger.Info("Search index ready", zap.String("index", sink.Index()), zap.Bool("created", created))
	}

	// Tier lookups go through the cache unless it is disabled.
	var (
		tiers     discoveryuc.TierReader = profiles
		invalid   chiTransport.TierInvalidator
		cachePing healthuc.Pinger
	)
	if !cfg.Cache.Disabled {
		cache := tiercache.New(
			profiles, store,
			time.Duration(cfg.Cache.TierTTLSec)*time.Second,
			metrics.TierCacheTotal,
			logpkg.Component(logger, "tiercache"),
		)
		tiers = cache
		invalid = cache
		cachePing = store
	}

	registry := discoveryuc.NewRegistry(discoveryuc.RegistryConfig{
		Index:       index,
		Profiles:    profiles,
		Tiers:       tiers,
		IdleTimeout: time.Duration(cfg.Discovery.IdleTimeoutSec) * time.Second,
		Logger:      logpkg.Component(logger, "discovery"),
	})

	runCtx, stopRegistry := context.WithCancel(ctx)
	defer stopRegistry()
	go registry.Run(runCtx, time.Duration(cfg.Discovery.SweepIntervalSec)*time.Second)

	healthSvc := healthuc.New(indexPing, profiles, cachePing)

	server := chiTransport.NewServer(registry, healthSvc, chiTransport.Options{
		Surface:       mode.Surface(cfg.Discovery.Surface),
		SearchTimeout: time.Duration(cfg.HTTP.SearchTimeoutSec) * time.Second,
		Tiers:         invalid,
		Indexer:       reindexer,
	}, logger)

	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys: cfg.Auth.APIKeys,
		Limiter: chiTransport.NewRateLimiter(cfg.RateLimit.RequestsPerSec, cfg.RateLimit.Burst, chiTransport.DefaultLimiterTTL),
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	stopRegistry()

	logger.Info("Server stopped gracefully")
}
