package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository/memory"
)

func TestStats(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	store.PutProject(domain.Project{ID: "p1"})
	store.PutProject(domain.Project{ID: "p2"})
	for _, m := range []struct{ project, user string }{
		{"p1", "alice"}, {"p1", "bob"}, {"p2", "alice"}, {"p2", "carol"}, {"p2", "bob"},
	} {
		if err := store.InsertMembership(ctx, m.project, m.user, domain.RoleMember); err != nil {
			t.Fatalf("InsertMembership returned error: %v", err)
		}
	}
	store.PutTask(domain.Task{ProjectID: "p1", AssigneeID: "alice"})
	store.PutTask(domain.Task{ProjectID: "p1", AssigneeID: "alice", Status: domain.TaskInProgress})
	store.PutTask(domain.Task{ProjectID: "p2", AssigneeID: "alice", Status: domain.TaskDone})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.UpsertSynergyScore(ctx, "alice", "bob", 250, at); err != nil {
		t.Fatalf("UpsertSynergyScore returned error: %v", err)
	}
	if _, err := store.UpsertSynergyScore(ctx, "carol", "alice", 101, at); err != nil {
		t.Fatalf("UpsertSynergyScore returned error: %v", err)
	}

	stats, err := New(store, nil, 0).Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	want := domain.DashboardStats{TotalProjects: 2, ActiveTasks: 2, SynergyScore: 176, TeamMembers: 2}
	if *stats != want {
		t.Fatalf("Stats() = %+v, want %+v", *stats, want)
	}
}
