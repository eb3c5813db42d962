package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

type leaderboardRefresher interface {
	Refresh(ctx context.Context) error
}

type LeaderboardRefreshJobParams struct {
	Logger      *logger.Logger
	Leaderboard leaderboardRefresher
	Schedule    string
}

func NewLeaderboardRefreshJob(params LeaderboardRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Leaderboard == nil {
		return nil, fmt.Errorf("leaderboard service required")
	}
	if params.Schedule == "" {
		return nil, fmt.Errorf("schedule required")
	}
	return &leaderboardRefreshJob{logg: params.Logger, leaderboard: params.Leaderboard, schedule: params.Schedule}, nil
}

type leaderboardRefreshJob struct {
	logg        *logger.Logger
	leaderboard leaderboardRefresher
	schedule    string
}

func (j *leaderboardRefreshJob) Name() string     { return "leaderboard-refresh" }
func (j *leaderboardRefreshJob) Schedule() string { return j.schedule }

func (j *leaderboardRefreshJob) Run(ctx context.Context) error {
	if err := j.leaderboard.Refresh(ctx); err != nil {
		return fmt.Errorf("leaderboard refresh: %w", err)
	}
	j.logg.Info(ctx, "leaderboard cache refreshed")
	return nil
}
