package deadline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/usecase"
)

// DefaultWindow is how far ahead of now a deadline is considered soon.
const DefaultWindow = 24 * time.Hour

// DueBucket is the calendar classification of a deadline relative to now.
type DueBucket string

const (
	DueToday    DueBucket = "today"
	DueTomorrow DueBucket = "tomorrow"
	DueLater    DueBucket = "later"
)

// Classify compares calendar dates in loc: due on the same date as now is
// today, on the same date as now+24h is tomorrow.
func Classify(now, due time.Time, loc *time.Location) DueBucket {
	if loc == nil {
		loc = time.UTC
	}
	switch {
	case sameDate(due, now, loc):
		return DueToday
	case sameDate(due, now.Add(24*time.Hour), loc):
		return DueTomorrow
	default:
		return DueLater
	}
}

func sameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DedupeKey identifies one alert for one subject, due date and bucket. The
// same item alerts at most once as tomorrow and once as today.
func DedupeKey(kind, subjectID string, due time.Time, bucket DueBucket, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		domain.NotificationDeadlineSoon, kind, subjectID, due.In(loc).Format(time.DateOnly), bucket)
}

func projectMessage(p domain.Project, bucket DueBucket, due time.Time) string {
	switch bucket {
	case DueToday:
		return fmt.Sprintf("Project %q deadline is today!", p.Title)
	case DueTomorrow:
		return fmt.Sprintf("Project %q deadline is tomorrow!", p.Title)
	default:
		return fmt.Sprintf("Project %q deadline is on %s.", p.Title, due.Format(time.DateOnly))
	}
}

func taskMessage(t domain.Task, bucket DueBucket, due time.Time) string {
	switch bucket {
	case DueToday:
		return fmt.Sprintf("Task %q in %q is due today!", t.Title, t.ProjectTitle)
	case DueTomorrow:
		return fmt.Sprintf("Task %q in %q is due tomorrow!", t.Title, t.ProjectTitle)
	default:
		return fmt.Sprintf("Task %q in %q is due on %s.", t.Title, t.ProjectTitle, due.Format(time.DateOnly))
	}
}

// Throttle limits how often a user's scan may run on demand.
type Throttle interface {
	Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error)
}

// Result counts the alerts of one scan.
type Result struct {
	ProjectsNotified int  `json:"projects_notified"`
	TasksNotified    int  `json:"tasks_notified"`
	Suppressed       int  `json:"suppressed"`
	Throttled        bool `json:"throttled,omitempty"`
}

type Config struct {
	Window      time.Duration
	Location    *time.Location
	CallTimeout time.Duration
	ThrottleTTL time.Duration
}

type UseCase struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	sink     usecase.NotificationSink
	throttle Throttle
	logger   *zap.Logger
	cfg      Config
}

func New(
	projects repository.ProjectRepository,
	tasks repository.TaskRepository,
	sink usecase.NotificationSink,
	throttle Throttle,
	logger *zap.Logger,
	cfg Config,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &UseCase{
		projects: projects,
		tasks:    tasks,
		sink:     sink,
		throttle: throttle,
		logger:   logger,
		cfg:      cfg,
	}
}

// Window returns the scan range starting at now.
func (uc *UseCase) Window(now time.Time) (time.Time, time.Time) {
	return now, now.Add(uc.cfg.Window)
}

// Scan alerts userID about active projects and open tasks due within the
// window. The project and task branches are independent: a failure in one is
// reported after the other has emitted its alerts. Alerts already emitted
// stay in place when the scan is cancelled.
func (uc *UseCase) Scan(ctx context.Context, userID string, now time.Time) (Result, error) {
	var res Result
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return res, domain.ErrInvalidPayload
	}
	if now.IsZero() {
		return res, domain.ErrInvalidRange
	}
	from, to := uc.Window(now)

	projectErr := uc.scanProjects(ctx, userID, now, from, to, &res)
	if projectErr != nil {
		uc.logger.Error("project deadline scan failed", zap.String("user_id", userID), zap.Error(projectErr))
	}
	taskErr := uc.scanTasks(ctx, userID, now, from, to, &res)
	if taskErr != nil {
		uc.logger.Error("task deadline scan failed", zap.String("user_id", userID), zap.Error(taskErr))
	}

	uc.logger.Debug("deadline scan finished",
		zap.String("user_id", userID),
		zap.Int("projects_notified", res.ProjectsNotified),
		zap.Int("tasks_notified", res.TasksNotified),
		zap.Int("suppressed", res.Suppressed))
	return res, errors.Join(projectErr, taskErr)
}

// ScanIfDue runs Scan unless the user was scanned within the throttle TTL.
// A throttle failure does not block the scan.
func (uc *UseCase) ScanIfDue(ctx context.Context, userID string, now time.Time) (Result, error) {
	if uc.throttle != nil && uc.cfg.ThrottleTTL > 0 {
		ok, err := uc.throttle.Acquire(ctx, userID, uc.cfg.ThrottleTTL)
		switch {
		case err != nil:
			uc.logger.Warn("scan throttle unavailable", zap.String("user_id", userID), zap.Error(err))
		case !ok:
			return Result{Throttled: true}, nil
		}
	}
	return uc.Scan(ctx, userID, now)
}

func (uc *UseCase) scanProjects(ctx context.Context, userID string, now, from, to time.Time, res *Result) error {
	projects, err := usecase.Fetch(ctx, uc.cfg.CallTimeout, "list projects near deadline", func(ctx context.Context) ([]domain.Project, error) {
		return uc.projects.ListProjectsNearDeadline(ctx, userID, from, to)
	})
	if err != nil {
		return err
	}

	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.Deadline == nil {
			continue
		}
		due := *p.Deadline
		bucket := Classify(now, due, uc.cfg.Location)
		emitted, err := uc.emit(ctx, &domain.Notification{
			UserID:    userID,
			ProjectID: p.ID,
			Type:      domain.NotificationDeadlineSoon,
			Message:   projectMessage(p, bucket, due.In(uc.cfg.Location)),
			DedupeKey: DedupeKey("project", p.ID, due, bucket, uc.cfg.Location),
		})
		if err != nil {
			return err
		}
		if emitted {
			res.ProjectsNotified++
		} else {
			res.Suppressed++
		}
	}
	return nil
}

func (uc *UseCase) scanTasks(ctx context.Context, userID string, now, from, to time.Time, res *Result) error {
	tasks, err := usecase.Fetch(ctx, uc.cfg.CallTimeout, "list tasks near due date", func(ctx context.Context) ([]domain.Task, error) {
		return uc.tasks.ListTasksNearDueDate(ctx, userID, from, to)
	})
	if err != nil {
		return err
	}

	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.DueDate == nil || t.IsCompleted() {
			continue
		}
		due := *t.DueDate
		bucket := Classify(now, due, uc.cfg.Location)
		emitted, err := uc.emit(ctx, &domain.Notification{
			UserID:    userID,
			ProjectID: t.ProjectID,
			Type:      domain.NotificationDeadlineSoon,
			Message:   taskMessage(t, bucket, due.In(uc.cfg.Location)),
			DedupeKey: DedupeKey("task", t.ID, due, bucket, uc.cfg.Location),
		})
		if err != nil {
			return err
		}
		if emitted {
			res.TasksNotified++
		} else {
			res.Suppressed++
		}
	}
	return nil
}

func (uc *UseCase) emit(ctx context.Context, n *domain.Notification) (bool, error) {
	return usecase.Fetch(ctx, uc.cfg.CallTimeout, "emit notification", func(ctx context.Context) (bool, error) {
		return uc.sink.Emit(ctx, n)
	})
}
