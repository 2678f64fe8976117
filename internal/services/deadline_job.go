package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/usecase/deadline"
)

// Scanner is the per-user deadline scan run by the job.
type Scanner interface {
	Scan(ctx context.Context, userID string, now time.Time) (deadline.Result, error)
	Window(now time.Time) (time.Time, time.Time)
}

// JobStats summarizes one sweep over all users.
type JobStats struct {
	Users            int
	ProjectsNotified int
	TasksNotified    int
	Suppressed       int
	Failed           int
}

// DeadlineJob periodically scans every user with something due soon.
type DeadlineJob struct {
	projects repository.ProjectRepository
	scanner  Scanner
	logger   *zap.Logger
	cron     *cron.Cron
	timeout  time.Duration
	now      func() time.Time
}

// NewDeadlineJob schedules the sweep with a six-field cron spec.
func NewDeadlineJob(projects repository.ProjectRepository, scanner Scanner, schedule string, timeout time.Duration, logger *zap.Logger) (*DeadlineJob, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	j := &DeadlineJob{
		projects: projects,
		scanner:  scanner,
		logger:   logger,
		cron:     cron.New(cron.WithSeconds()),
		timeout:  timeout,
		now:      time.Now,
	}
	if _, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.Error("deadline sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *DeadlineJob) Start() {
	j.cron.Start()
	j.logger.Info("deadline job started")
}

func (j *DeadlineJob) Stop(ctx context.Context) error {
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	j.logger.Info("deadline job stopped")
	return nil
}

// RunOnce scans every user with an upcoming deadline. A failing user is
// logged and the sweep moves on; cancellation stops it between users.
func (j *DeadlineJob) RunOnce(ctx context.Context) (JobStats, error) {
	var stats JobStats
	now := j.now().UTC()
	from, to := j.scanner.Window(now)

	users, err := j.projects.ListUsersWithUpcomingDeadlines(ctx, from, to)
	if err != nil {
		return stats, err
	}

	var failures error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return stats, errors.Join(failures, err)
		}
		stats.Users++
		res, err := j.scanner.Scan(ctx, userID, now)
		stats.ProjectsNotified += res.ProjectsNotified
		stats.TasksNotified += res.TasksNotified
		stats.Suppressed += res.Suppressed
		if err != nil {
			stats.Failed++
			failures = errors.Join(failures, err)
			j.logger.Warn("deadline scan failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	j.logger.Info("deadline sweep finished",
		zap.Int("users", stats.Users),
		zap.Int("projects_notified", stats.ProjectsNotified),
		zap.Int("tasks_notified", stats.TasksNotified),
		zap.Int("suppressed", stats.Suppressed),
		zap.Int("failed", stats.Failed))
	return stats, failures
}
