package main

import (
	"fmt"
	"time"

	"github.com/angelmondragon/servicehub-backend/api/routes"
	"github.com/angelmondragon/servicehub-backend/internal/achievements"
	"github.com/angelmondragon/servicehub-backend/internal/availability"
	"github.com/angelmondragon/servicehub-backend/internal/bookings"
	"github.com/angelmondragon/servicehub-backend/internal/gamification"
	"github.com/angelmondragon/servicehub-backend/internal/leaderboard"
	"github.com/angelmondragon/servicehub-backend/internal/notifications"
	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/internal/reviews"
	"github.com/angelmondragon/servicehub-backend/internal/rewards"
	"github.com/angelmondragon/servicehub-backend/pkg/config"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox"
	"github.com/angelmondragon/servicehub-backend/pkg/redis"
)

func buildServices(
	cfg *config.Config,
	location *time.Location,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	domainMetrics *metrics.DomainMetrics,
) (routes.Services, error) {
	conn := dbClient.DB()

	emitter, err := notifications.NewEmitter(outbox.NewService(outbox.NewRepository(conn), logg))
	if err != nil {
		return routes.Services{}, fmt.Errorf("notifications emitter: %w", err)
	}

	availabilitySvc, err := availability.NewService(availability.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Services{}, fmt.Errorf("availability service: %w", err)
	}

	pointsSvc, err := points.NewService(points.NewRepository(conn), dbClient, logg, domainMetrics)
	if err != nil {
		return routes.Services{}, fmt.Errorf("points service: %w", err)
	}

	achievementsSvc, err := achievements.NewService(achievements.NewRepository(conn), dbClient, pointsSvc, logg, domainMetrics)
	if err != nil {
		return routes.Services{}, fmt.Errorf("achievements service: %w", err)
	}

	gamificationSvc, err := gamification.NewService(dbClient, pointsSvc, achievementsSvc)
	if err != nil {
		return routes.Services{}, fmt.Errorf("gamification service: %w", err)
	}

	bookingsSvc, err := bookings.NewService(
		bookings.NewRepository(conn),
		dbClient,
		availabilitySvc,
		gamificationSvc,
		emitter,
		logg,
		domainMetrics,
		bookings.Options{
			Location:            location,
			QuickResponseWindow: cfg.Gamification.QuickResponseWindow,
			OnTimeGrace:         cfg.Gamification.OnTimeGrace,
		},
	)
	if err != nil {
		return routes.Services{}, fmt.Errorf("bookings service: %w", err)
	}

	reviewsSvc, err := reviews.NewService(reviews.NewRepository(conn), dbClient, gamificationSvc, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("reviews service: %w", err)
	}

	leaderboardSvc, err := leaderboard.NewService(leaderboard.NewRepository(conn), redisClient, logg, leaderboard.Options{
		Location:     location,
		CacheTTL:     cfg.Gamification.LeaderboardCacheTTL,
		DefaultLimit: cfg.Gamification.LeaderboardLimit,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("leaderboard service: %w", err)
	}

	rewardsSvc, err := rewards.NewService(rewards.NewRepository(conn), dbClient, pointsSvc, emitter, logg, domainMetrics)
	if err != nil {
		return routes.Services{}, fmt.Errorf("rewards service: %w", err)
	}

	return routes.Services{
		Availability: availabilitySvc,
		Bookings:     bookingsSvc,
		Reviews:      reviewsSvc,
		Points:       pointsSvc,
		Achievements: achievementsSvc,
		Gamification: gamificationSvc,
		Leaderboard:  leaderboardSvc,
		Rewards:      rewardsSvc,
	}, nil
}
