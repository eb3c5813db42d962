package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/servicehub-backend/internal/cron"
	"github.com/angelmondragon/servicehub-backend/internal/leaderboard"
	"github.com/angelmondragon/servicehub-backend/internal/notifications"
	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/internal/rewards"
	"github.com/angelmondragon/servicehub-backend/pkg/config"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/instance"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
	"github.com/angelmondragon/servicehub-backend/pkg/migrate"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox"
	"github.com/angelmondragon/servicehub-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run the selected jobs a single time and exit")
	only := flag.String("jobs", "", "comma separated job names to run (default: all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	location, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid timezone", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry, err := buildJobs(cfg, location, logg, dbClient, redisClient)
	if err == nil && *only != "" {
		registry, err = registry.Select(strings.Split(*only, ",")...)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locks:    cron.RedisLocks(redisClient, cfg.Cron.LockTTL),
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Location: location,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})

	if *once {
		logg.Info(ctx, "running cron jobs once")
		service.RunOnce(ctx)
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, location *time.Location, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)

	emitter, err := notifications.NewEmitter(outbox.NewService(outboxRepo, logg))
	if err != nil {
		return nil, err
	}
	pointsSvc, err := points.NewService(points.NewRepository(conn), dbClient, logg, nil)
	if err != nil {
		return nil, err
	}
	rewardsSvc, err := rewards.NewService(rewards.NewRepository(conn), dbClient, pointsSvc, emitter, logg, nil)
	if err != nil {
		return nil, err
	}
	leaderboardSvc, err := leaderboard.NewService(leaderboard.NewRepository(conn), redisClient, logg, leaderboard.Options{
		Location:     location,
		CacheTTL:     cfg.Gamification.LeaderboardCacheTTL,
		DefaultLimit: cfg.Gamification.LeaderboardLimit,
	})
	if err != nil {
		return nil, err
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:       logg,
		DB:           dbClient,
		Repository:   outboxRepo,
		DeadLetters:  outbox.NewDLQRepository(conn),
		Schedule:     cfg.Cron.OutboxRetention,
		Retention:    cfg.Outbox.RetentionDays,
		DLQRetention: cfg.Outbox.DLQRetentionDays,
		MinAttempts:  cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	expiry, err := cron.NewRedemptionExpiryJob(cron.RedemptionExpiryJobParams{
		Logger:   logg,
		Rewards:  rewardsSvc,
		Schedule: cfg.Cron.RedemptionExpiry,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := cron.NewLeaderboardRefreshJob(cron.LeaderboardRefreshJobParams{
		Logger:      logg,
		Leaderboard: leaderboardSvc,
		Schedule:    cfg.Cron.LeaderboardRefresh,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(retention, expiry, refresh)
}
