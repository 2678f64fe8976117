package deadline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/repository/memory"
)

type storeSink struct {
	store repository.NotificationRepository
}

func (s storeSink) Emit(ctx context.Context, n *domain.Notification) (bool, error) {
	exists, err := s.store.NotificationExists(ctx, n.UserID, n.DedupeKey)
	if err != nil || exists {
		return false, err
	}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		if errors.Is(err, domain.ErrNotificationExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func ptr(t time.Time) *time.Time { return &t }

var now = time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		loc  *time.Location
		want DueBucket
	}{
		{"same day noon", time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC), nil, DueToday},
		{"next morning", time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), nil, DueTomorrow},
		{"exactly 24h later", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), nil, DueTomorrow},
		{"two days out", time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), nil, DueLater},
		{"shifted by zone", time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC), time.FixedZone("UTC-13", -13*3600), DueToday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(now, tt.due, tt.loc); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDedupeKey(t *testing.T) {
	due := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	got := DedupeKey("task", "t1", due, DueTomorrow, nil)
	if got != "deadline_soon:task:t1:2024-01-15:tomorrow" {
		t.Fatalf("unexpected key %q", got)
	}
}

func seed(store *memory.Store) {
	store.PutProject(domain.Project{ID: "p1", Title: "Launch", Deadline: ptr(time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC)), CreatedAt: now.Add(-48 * time.Hour)})
	store.PutProject(domain.Project{ID: "p2", Title: "Later", Deadline: ptr(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)), CreatedAt: now.Add(-48 * time.Hour)})
	store.PutProject(domain.Project{ID: "p3", Title: "Done", Status: domain.ProjectCompleted, Deadline: ptr(time.Date(2024, 1, 14, 6, 0, 0, 0, time.UTC)), CreatedAt: now.Add(-48 * time.Hour)})
	for _, id := range []string{"p1", "p2", "p3"} {
		_ = store.InsertMembership(context.Background(), id, "alice", domain.RoleMember)
	}
	store.PutTask(domain.Task{ID: "t1", ProjectID: "p1", Title: "Slides", AssigneeID: "alice", DueDate: ptr(time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC))})
	store.PutTask(domain.Task{ID: "t2", ProjectID: "p1", Title: "Closed", AssigneeID: "alice", Status: domain.TaskDone, DueDate: ptr(time.Date(2024, 1, 14, 9, 0, 0, 0, time.UTC))})
	store.PutTask(domain.Task{ID: "t3", ProjectID: "p1", Title: "Other", AssigneeID: "bob", DueDate: ptr(time.Date(2024, 1, 14, 9, 0, 0, 0, time.UTC))})
}

func TestScan_EmitsOncePerItem(t *testing.T) {
	store := memory.New()
	seed(store)
	uc := New(store, store, storeSink{store}, nil, nil, Config{})

	res, err := uc.Scan(context.Background(), "alice", now)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if res.ProjectsNotified != 1 || res.TasksNotified != 1 || res.Suppressed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	list, err := store.ListNotifications(context.Background(), repository.NotificationFilter{UserID: "alice"})
	if err != nil {
		t.Fatalf("ListNotifications returned error: %v", err)
	}
	messages := make([]string, 0, len(list))
	for _, n := range list {
		if n.Type != domain.NotificationDeadlineSoon || n.Read {
			t.Fatalf("unexpected notification: %+v", n)
		}
		messages = append(messages, n.Message)
	}
	joined := strings.Join(messages, "|")
	if !strings.Contains(joined, `Project "Launch" deadline is today!`) ||
		!strings.Contains(joined, `Task "Slides" in "Launch" is due today!`) {
		t.Fatalf("unexpected messages: %v", messages)
	}

	again, err := uc.Scan(context.Background(), "alice", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second Scan returned error: %v", err)
	}
	if again.ProjectsNotified != 0 || again.TasksNotified != 0 || again.Suppressed != 2 {
		t.Fatalf("repeat scan should be suppressed, got %+v", again)
	}
	if n, _ := store.CountUnread(context.Background(), "alice"); n != 2 {
		t.Fatalf("expected 2 notifications after repeat scan, got %d", n)
	}
}

func TestScan_TomorrowThenToday(t *testing.T) {
	store := memory.New()
	store.PutTask(domain.Task{ID: "t1", Title: "Report", AssigneeID: "alice", DueDate: ptr(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))})
	uc := New(store, store, storeSink{store}, nil, nil, Config{Window: 36 * time.Hour})

	first, err := uc.Scan(context.Background(), "alice", now)
	if err != nil || first.TasksNotified != 1 {
		t.Fatalf("first scan: %+v, %v", first, err)
	}
	second, err := uc.Scan(context.Background(), "alice", now.Add(12*time.Hour))
	if err != nil || second.TasksNotified != 0 || second.Suppressed != 1 {
		t.Fatalf("same-day rescan: %+v, %v", second, err)
	}
	third, err := uc.Scan(context.Background(), "alice", now.Add(25*time.Hour))
	if err != nil || third.TasksNotified != 1 {
		t.Fatalf("next-day scan should alert as today: %+v, %v", third, err)
	}
}

type failingTasks struct{ err error }

func (f failingTasks) ListTasksNearDueDate(context.Context, string, time.Time, time.Time) ([]domain.Task, error) {
	return nil, f.err
}

func TestScan_TaskFailureKeepsProjectAlerts(t *testing.T) {
	store := memory.New()
	seed(store)
	boom := errors.New("tasks table locked")
	uc := New(store, failingTasks{boom}, storeSink{store}, nil, nil, Config{})

	res, err := uc.Scan(context.Background(), "alice", now)
	if !errors.Is(err, boom) {
		t.Fatalf("expected task error, got %v", err)
	}
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
	if res.ProjectsNotified != 1 {
		t.Fatalf("project branch should still emit, got %+v", res)
	}
	if n, _ := store.CountUnread(context.Background(), "alice"); n != 1 {
		t.Fatalf("expected project alert to be stored, got %d", n)
	}
}

func TestScan_Cancelled(t *testing.T) {
	store := memory.New()
	seed(store)
	uc := New(store, store, storeSink{store}, nil, nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := uc.Scan(ctx, "alice", now)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.ProjectsNotified+res.TasksNotified != 0 {
		t.Fatalf("cancelled scan emitted alerts: %+v", res)
	}
}

func TestScan_Validation(t *testing.T) {
	uc := New(nil, nil, nil, nil, nil, Config{})
	if _, err := uc.Scan(context.Background(), " ", now); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if _, err := uc.Scan(context.Background(), "alice", time.Time{}); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

type fakeThrottle struct {
	allow bool
	err   error
	calls int
}

func (f *fakeThrottle) Acquire(context.Context, string, time.Duration) (bool, error) {
	f.calls++
	return f.allow, f.err
}

func TestScanIfDue(t *testing.T) {
	store := memory.New()
	seed(store)

	denied := &fakeThrottle{allow: false}
	uc := New(store, store, storeSink{store}, denied, nil, Config{ThrottleTTL: time.Minute})
	res, err := uc.ScanIfDue(context.Background(), "alice", now)
	if err != nil || !res.Throttled {
		t.Fatalf("expected throttled result, got %+v, %v", res, err)
	}
	if n, _ := store.CountUnread(context.Background(), "alice"); n != 0 {
		t.Fatalf("throttled scan emitted %d alerts", n)
	}

	broken := &fakeThrottle{err: errors.New("redis down")}
	uc = New(store, store, storeSink{store}, broken, nil, Config{ThrottleTTL: time.Minute})
	res, err = uc.ScanIfDue(context.Background(), "alice", now)
	if err != nil || res.Throttled || res.ProjectsNotified != 1 {
		t.Fatalf("throttle failure should not block scan, got %+v, %v", res, err)
	}
}
