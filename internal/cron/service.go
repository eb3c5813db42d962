package cron

import (
	"context"
	"fmt"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
)

// LockFactory builds the exclusive lock guarding one job.
type LockFactory func(job string) (Lock, error)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Locks    LockFactory
	Metrics  *metrics.CronJobMetrics
	Location *time.Location
}

type scheduledJob struct {
	job  Job
	lock Lock
}

// Service runs each registered job on its own cron expression. A job runs
// only while its lock is held, so replicas never overlap on the same job.
type Service struct {
	logg     *logger.Logger
	jobs     []scheduledJob
	metrics  *metrics.CronJobMetrics
	location *time.Location
}

// NewService validates every schedule and builds one lock per job.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Locks == nil {
		return nil, fmt.Errorf("lock factory required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	location := params.Location
	if location == nil {
		location = time.UTC
	}

	svc := &Service{logg: params.Logger, metrics: params.Metrics, location: location}
	for _, job := range registry.Jobs() {
		if _, err := robfigcron.ParseStandard(job.Schedule()); err != nil {
			return nil, fmt.Errorf("job %s: invalid schedule %q: %w", job.Name(), job.Schedule(), err)
		}
		lock, err := params.Locks(job.Name())
		if err != nil {
			return nil, fmt.Errorf("job %s: lock: %w", job.Name(), err)
		}
		svc.jobs = append(svc.jobs, scheduledJob{job: job, lock: lock})
	}
	return svc, nil
}

// Run schedules every job and blocks until ctx is canceled, then waits for
// in-flight jobs to return.
func (s *Service) Run(ctx context.Context) error {
	scheduler := robfigcron.New(
		robfigcron.WithLocation(s.location),
		robfigcron.WithChain(robfigcron.SkipIfStillRunning(robfigcron.DiscardLogger)),
	)
	for _, entry := range s.jobs {
		entry := entry
		if _, err := scheduler.AddFunc(entry.job.Schedule(), func() { s.runJob(ctx, entry) }); err != nil {
			return fmt.Errorf("schedule %s: %w", entry.job.Name(), err)
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"job":      entry.job.Name(),
			"schedule": entry.job.Schedule(),
		}), "job scheduled")
	}

	scheduler.Start()
	<-ctx.Done()
	s.logg.Info(ctx, "cron service context canceled")
	<-scheduler.Stop().Done()
	return ctx.Err()
}

// RunOnce runs every job immediately in registration order.
func (s *Service) RunOnce(ctx context.Context) {
	for _, entry := range s.jobs {
		s.runJob(ctx, entry)
	}
}

func (s *Service) runJob(ctx context.Context, entry scheduledJob) {
	job := entry.job
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")

	locked, err := entry.lock.Acquire(jobCtx)
	if err != nil {
		s.logg.Error(jobCtx, "lock acquire failed", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	if !locked {
		s.logg.Info(jobCtx, "another instance holds the job lock; skipping")
		s.metrics.IncSkipped(job.Name())
		return
	}
	defer func() {
		if relErr := entry.lock.Release(jobCtx); relErr != nil {
			s.logg.Error(jobCtx, "failed to release job lock", relErr)
		}
	}()

	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err = job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
}
