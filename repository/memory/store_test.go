package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	inv := &domain.Invitation{ProjectID: "p1", Email: "a@example.com", Role: domain.RoleMember, Status: domain.InvitationPending}
	if err := s.InsertInvitation(ctx, inv); err != nil {
		t.Fatalf("InsertInvitation returned error: %v", err)
	}

	boom := errors.New("abort")
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ok, err := tx.Invitations().CompareAndSetInvitationStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted, time.Now())
		if err != nil || !ok {
			t.Fatalf("CAS inside tx = %v, %v", ok, err)
		}
		if err := tx.Memberships().InsertMembership(ctx, "p1", "alice", domain.RoleMember); err != nil {
			t.Fatalf("InsertMembership inside tx returned error: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected tx error, got %v", err)
	}

	got, _ := s.GetInvitation(ctx, inv.ID)
	if got.Status != domain.InvitationPending {
		t.Fatalf("status should be rolled back, got %s", got.Status)
	}
	if len(s.Memberships("p1")) != 0 {
		t.Fatalf("membership should be rolled back")
	}
}

func TestCompareAndSet(t *testing.T) {
	s := New()
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	inv := &domain.Invitation{ProjectID: "p1", Email: "a@example.com", Status: domain.InvitationPending, CreatedAt: created}
	_ = s.InsertInvitation(ctx, inv)

	if ok, _ := s.CompareAndSetInvitationStatus(ctx, "missing", domain.InvitationPending, domain.InvitationDeclined, created); ok {
		t.Fatalf("CAS on missing row should fail")
	}
	if ok, _ := s.CompareAndSetInvitationStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationDeclined, created.Add(-time.Hour)); !ok {
		t.Fatalf("first CAS should win")
	}
	if ok, _ := s.CompareAndSetInvitationStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted, created); ok {
		t.Fatalf("second CAS should lose")
	}
	got, _ := s.GetInvitation(ctx, inv.ID)
	if got.Status != domain.InvitationDeclined || got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("unexpected invitation %+v", got)
	}

	again := &domain.Invitation{ProjectID: "p1", Email: "a@example.com", Status: domain.InvitationPending}
	if err := s.InsertInvitation(ctx, again); err != nil {
		t.Fatalf("re-invite after decline failed: %v", err)
	}
	dup := &domain.Invitation{ProjectID: "p1", Email: "a@example.com", Status: domain.InvitationPending}
	if err := s.InsertInvitation(ctx, dup); !errors.Is(err, domain.ErrDuplicatePendingInvitation) {
		t.Fatalf("expected duplicate pending, got %v", err)
	}
}

func TestUpsertSynergyScore_Canonical(t *testing.T) {
	s := New()
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.UpsertSynergyScore(ctx, "bob", "alice", 120, at); err != nil {
		t.Fatalf("UpsertSynergyScore returned error: %v", err)
	}
	row, err := s.UpsertSynergyScore(ctx, "alice", "bob", 120, at)
	if err != nil {
		t.Fatalf("UpsertSynergyScore returned error: %v", err)
	}
	if s.ScoreCount() != 1 || row.User1ID != "alice" {
		t.Fatalf("expected single canonical row, got %d rows %+v", s.ScoreCount(), row)
	}
	if _, err := s.UpsertSynergyScore(ctx, "alice", "alice", 1, at); !errors.Is(err, domain.ErrInvalidPair) {
		t.Fatalf("self pair should be rejected, got %v", err)
	}
	if _, err := s.UpsertSynergyScore(ctx, "alice", "bob", -1, at); !errors.Is(err, domain.ErrInvalidPair) {
		t.Fatalf("negative score should be rejected, got %v", err)
	}
}

func TestNotificationDedupe(t *testing.T) {
	s := New()
	ctx := context.Background()
	first := &domain.Notification{UserID: "alice", Type: domain.NotificationDeadlineSoon, Message: "m", DedupeKey: "k"}
	if err := s.InsertNotification(ctx, first); err != nil {
		t.Fatalf("InsertNotification returned error: %v", err)
	}
	second := &domain.Notification{UserID: "alice", Type: domain.NotificationDeadlineSoon, Message: "m", DedupeKey: "k"}
	if err := s.InsertNotification(ctx, second); !errors.Is(err, domain.ErrNotificationExists) {
		t.Fatalf("expected ErrNotificationExists, got %v", err)
	}
	plain := &domain.Notification{UserID: "alice", Type: domain.NotificationProjectUpdate, Message: "m"}
	if err := s.InsertNotification(ctx, plain); err != nil {
		t.Fatalf("notifications without key never collide, got %v", err)
	}
	if ok, _ := s.NotificationExists(ctx, "alice", "k"); !ok {
		t.Fatalf("NotificationExists should report the key")
	}
	if ok, _ := s.NotificationExists(ctx, "bob", "k"); ok {
		t.Fatalf("keys are scoped per recipient")
	}
}

func TestConcurrentMembershipInsert(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.InsertMembership(ctx, "p1", "alice", domain.RoleMember); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrMembershipExists) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 || len(s.Memberships("p1")) != 1 {
		t.Fatalf("expected one membership, wins=%d", wins)
	}
}

func TestWindowQueries(t *testing.T) {
	s := New()
	ctx := context.Background()
	from := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	edge := to
	outside := to.Add(time.Second)

	s.PutProject(domain.Project{ID: "edge", Title: "Edge", Deadline: &edge})
	s.PutProject(domain.Project{ID: "out", Deadline: &outside})
	_ = s.InsertMembership(ctx, "edge", "alice", domain.RoleOwner)
	_ = s.InsertMembership(ctx, "out", "alice", domain.RoleOwner)
	s.PutTask(domain.Task{ID: "t", ProjectID: "edge", AssigneeID: "bob", DueDate: &from})

	projects, _ := s.ListProjectsNearDeadline(ctx, "alice", from, to)
	if len(projects) != 1 || projects[0].ID != "edge" {
		t.Fatalf("window should be inclusive, got %+v", projects)
	}
	tasks, _ := s.ListTasksNearDueDate(ctx, "bob", from, to)
	if len(tasks) != 1 || tasks[0].ProjectTitle != "Edge" {
		t.Fatalf("expected task with project title, got %+v", tasks)
	}
	users, _ := s.ListUsersWithUpcomingDeadlines(ctx, from, to)
	if len(users) != 2 || users[0] != "alice" || users[1] != "bob" {
		t.Fatalf("unexpected users %v", users)
	}
}
