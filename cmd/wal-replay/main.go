// Command wal-replay drains decisions left in the write-ahead log into the
// Redis decision stream, e.g. after the triage service was stopped while
// Redis was unreachable.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	redisrepo "github.com/V4T54L/alert-triage/internal/adapter/repository/redis"
	"github.com/V4T54L/alert-triage/internal/adapter/repository/wal"
	"github.com/V4T54L/alert-triage/internal/pkg/config"
	"github.com/V4T54L/alert-triage/internal/pkg/logger"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "give up after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.Decision.RedisAddr)
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	walRepo, err := wal.NewWALRepository(cfg.Decision.WALPath, cfg.Decision.WALSegmentSize, cfg.Decision.WALMaxDiskSize, log)
	if err != nil {
		log.Error("failed to open WAL", "path", cfg.Decision.WALPath, "error", err)
		os.Exit(1)
	}
	defer walRepo.Close()

	repo := redisrepo.NewDecisionRepository(redisClient, log, cfg.Decision.Stream, cfg.Decision.StreamMaxLen, walRepo, nil)
	if err := repo.ReplayWAL(ctx); err != nil {
		log.Error("WAL replay failed", "error", err)
		os.Exit(1)
	}

	log.Info("WAL drained", "stream", cfg.Decision.Stream)
}
