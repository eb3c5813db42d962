package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	dlqRetentionDays    = 90
	outboxMinAttempts   = 10
)

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	// DeadLetters is optional; when set, dead letters older than
	// DLQRetention days are pruned in the same transaction.
	DeadLetters  dlqRetentionRepo
	Schedule     string
	Retention    int
	DLQRetention int
	MinAttempts  int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type dlqRetentionRepo interface {
	DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.Schedule == "" {
		return nil, fmt.Errorf("schedule required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = outboxRetentionDays
	}
	dlqRetention := params.DLQRetention
	if dlqRetention <= 0 {
		dlqRetention = dlqRetentionDays
	}
	minAttempts := params.MinAttempts
	if minAttempts <= 0 {
		minAttempts = outboxMinAttempts
	}
	return &outboxRetentionJob{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		dlq:          params.DeadLetters,
		schedule:     params.Schedule,
		retention:    retention,
		dlqRetention: dlqRetention,
		minAttempts:  minAttempts,
		now:          time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg         *logger.Logger
	db           txRunner
	repo         outboxRetentionRepo
	dlq          dlqRetentionRepo
	schedule     string
	retention    int
	dlqRetention int
	minAttempts  int
	now          func() time.Time
}

func (j *outboxRetentionJob) Name() string     { return "outbox-retention" }
func (j *outboxRetentionJob) Schedule() string { return j.schedule }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-time.Duration(j.retention) * 24 * time.Hour)
	dlqCutoff := now.Add(-time.Duration(j.dlqRetention) * 24 * time.Hour)
	var deleted, deadDeleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.minAttempts)
		if err != nil {
			return err
		}
		deleted = rows
		if j.dlq == nil {
			return nil
		}
		deadDeleted, err = j.dlq.DeleteBefore(ctx, tx, dlqCutoff)
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	fields := map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"min_attempts":   j.minAttempts,
		"rows_deleted":   deleted,
	}
	if j.dlq != nil {
		fields["dlq_cutoff"] = dlqCutoff
		fields["dlq_rows_deleted"] = deadDeleted
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), "outbox retention cleanup complete")
	return nil
}
