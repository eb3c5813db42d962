package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

type redemptionExpirer interface {
	ExpireRedemptions(ctx context.Context) (int64, error)
}

type RedemptionExpiryJobParams struct {
	Logger   *logger.Logger
	Rewards  redemptionExpirer
	Schedule string
}

func NewRedemptionExpiryJob(params RedemptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Rewards == nil {
		return nil, fmt.Errorf("rewards service required")
	}
	if params.Schedule == "" {
		return nil, fmt.Errorf("schedule required")
	}
	return &redemptionExpiryJob{logg: params.Logger, rewards: params.Rewards, schedule: params.Schedule}, nil
}

type redemptionExpiryJob struct {
	logg     *logger.Logger
	rewards  redemptionExpirer
	schedule string
}

func (j *redemptionExpiryJob) Name() string     { return "redemption-expiry" }
func (j *redemptionExpiryJob) Schedule() string { return j.schedule }

func (j *redemptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.rewards.ExpireRedemptions(ctx)
	if err != nil {
		return fmt.Errorf("redemption expiry: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_expired", expired), "redemption expiry complete")
	return nil
}
