// Command indexer copies member profiles from the profile store into the
// redis search index used by discovery.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selfadvocacy/discovery/internal/config"
	dbRedis "github.com/selfadvocacy/discovery/internal/db/redis"
	logpkg "github.com/selfadvocacy/discovery/internal/logger"
	"github.com/selfadvocacy/discovery/internal/metrics"
	profilerepo "github.com/selfadvocacy/discovery/internal/repository/profile"
	"github.com/selfadvocacy/discovery/internal/repository/profileindex"
	indexeruc "github.com/selfadvocacy/discovery/internal/usecase/indexer"
	"github.com/selfadvocacy/discovery/internal/version"
)

func main() {
	recreate := flag.Bool("recreate", false, "drop and recreate the index schema before syncing")
	only := flag.String("profile", "", "reindex a single profile id instead of a full sync")
	flag.Parse()

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

	logger.Info("Starting profile indexer",
		zap.String("build", version.String()),
		zap.Bool("recreate", *recreate),
		zap.String("profile_id", *only),
	)

	if cfg.Index.Driver != config.IndexRedis {
		logger.Fatal("indexer only writes to the redis index", zap.String("driver", cfg.Index.Driver))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterDiscoveryMetrics()

	store, err := dbRedis.NewStore(dbRedis.Config{
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

	gdb, err := profilerepo.Open(cfg.Profiles.Driver, cfg.Profiles.DSN)
	if err != nil {
		logger.Fatal("Failed to open profile store", zap.Error(err))
	}

	sink := profileindex.New(store, profileindex.Config{
		Index:     cfg.Index.Name,
		KeyPrefix: cfg.Index.KeyPrefix,
	})
	svc := indexeruc.New(profilerepo.New(gdb), sink, logger).WithBatchSize(cfg.Indexer.BatchSize)

	if *recreate {
		if err := sink.Recreate(ctx); err != nil {
			logger.Fatal("Failed to recreate index", zap.Error(err))
		}
		logger.Info("Index recreated", zap.String("index", sink.Index()))
	}

	if *only != "" {
		if err := svc.Reindex(ctx, *only); err != nil {
			logger.Fatal("Reindex failed", zap.String("profile_id", *only), zap.Error(err))
		}
		logger.Info("Profile reindexed", zap.String("profile_id", *only))
		return
	}

	start := time.Now()
	rep, err := svc.Sync(ctx)
	if err != nil {
		logger.Fatal("Sync failed", zap.Error(err))
	}
	fields := []zap.Field{
		zap.Int("indexed", rep.Indexed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("batches", rep.Batches),
		zap.Duration("took", time.Since(start)),
	}
	if docs, err := sink.Count(ctx); err == nil {
		fields = append(fields, zap.Int("index_docs", docs))
	} else {
		logger.Warn("Could not read index size", zap.Error(err))
	}
	logger.Info("Sync complete", fields...)
}
