package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/servicehub-backend/internal/notifications"
	"github.com/angelmondragon/servicehub-backend/pkg/config"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/instance"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
	"github.com/angelmondragon/servicehub-backend/pkg/migrate"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox/registry"
	"github.com/angelmondragon/servicehub-backend/pkg/redis"
)

const deliveryClaimTTL = 24 * time.Hour

func main() {
	listDLQ := flag.Int("dlq", 0, "print the N newest dead letters and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "outbox-dispatcher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "outbox-dispatcher"

	logg = logger.New(logger.Options{
		ServiceName: "outbox-dispatcher",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	if *listDLQ > 0 {
		if err := printDeadLetters(context.Background(), outbox.NewDLQRepository(dbClient.DB()), *listDLQ); err != nil {
			logg.Error(context.Background(), "failed to list dead letters", err)
			os.Exit(1)
		}
		return
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

	mailer, err := notifications.NewMailer(cfg.SMTP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build mailer", err)
		os.Exit(1)
	}
	handler, err := notifications.NewHandler(mailer, logg, metrics.NewDomainMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		logg.Error(context.Background(), "failed to build notification handler", err)
		os.Exit(1)
	}
	guard, err := idempotency.NewGuard(redisClient, deliveryClaimTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build delivery guard", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      registry.NewEventRegistry(),
		Deliverer:     handler,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Guard:         guard,
		Pingers:       map[string]func(context.Context) error{"redis": redisClient.Ping},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox dispatcher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})
	logg.Info(ctx, "starting outbox dispatcher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox dispatcher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox dispatcher shutting down gracefully")
}

func printDeadLetters(ctx context.Context, repo *outbox.DLQRepository, limit int) error {
	rows, err := repo.List(ctx, outbox.DLQFilter{Limit: limit})
	if err != nil {
		return err
	}
	for _, row := range rows {
		msg := ""
		if row.ErrorMessage != nil {
			msg = *row.ErrorMessage
		}
		fmt.Printf("%s\t%s\t%s\t%s\tattempts=%d\t%s\n",
			row.FailedAt.Format(time.RFC3339), row.EventType, row.AggregateID, row.ErrorReason, row.AttemptCount, msg)
	}
	fmt.Printf("%d dead letters\n", len(rows))
	return nil
}
