package synergy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository/memory"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(days float64) time.Time {
	return base.Add(time.Duration(days * float64(24*time.Hour)))
}

func ptr(t time.Time) *time.Time { return &t }

func completed(createdDay, deadlineDay, doneDay float64) domain.Project {
	done := at(doneDay)
	return domain.Project{
		Status:      domain.ProjectCompleted,
		Deadline:    ptr(at(deadlineDay)),
		CreatedAt:   at(createdDay),
		UpdatedAt:   done,
		CompletedAt: &done,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		projects []domain.Project
		want     int
	}{
		{"no shared projects", nil, 0},
		{"one active project", []domain.Project{{Status: domain.ProjectActive}}, 50},
		{"completed halfway", []domain.Project{completed(0, 10, 5)}, 250},
		{"completed instantly", []domain.Project{completed(0, 10, 0)}, 350},
		{"completed late", []domain.Project{completed(0, 10, 12)}, 150},
		{"completed without deadline", []domain.Project{{Status: domain.ProjectCompleted, CreatedAt: at(0), UpdatedAt: at(3)}}, 150},
		{"deadline before creation", []domain.Project{completed(5, 1, 6)}, 150},
		{"archived counts for breadth only", []domain.Project{{Status: domain.ProjectArchived}, completed(0, 4, 1)}, 100 + 150 + 100},
		{"breadth bonus capped", []domain.Project{
			{Status: domain.ProjectActive}, {Status: domain.ProjectActive}, {Status: domain.ProjectActive},
			{Status: domain.ProjectActive}, {Status: domain.ProjectActive}, {Status: domain.ProjectActive},
		}, 200},
		{"rounds to nearest", []domain.Project{completed(0, 3, 1)}, 100 + 133 + 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.projects); got != tt.want {
				t.Fatalf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_MonotonicInEfficiency(t *testing.T) {
	prev := -1
	for done := 10.0; done >= 0; done -= 0.5 {
		got := Score([]domain.Project{completed(0, 10, done)})
		if got < prev {
			t.Fatalf("score decreased from %d to %d when finishing earlier (day %.1f)", prev, got, done)
		}
		contribution := got - 50
		if contribution < 100 || contribution > 300 {
			t.Fatalf("contribution %d out of [100, 300]", contribution)
		}
		prev = got
	}
}

func TestEfficiency_FallsBackToUpdatedAt(t *testing.T) {
	p := domain.Project{
		Status:    domain.ProjectCompleted,
		Deadline:  ptr(at(10)),
		CreatedAt: at(0),
		UpdatedAt: at(2),
	}
	if got := Efficiency(&p); got != 0.8 {
		t.Fatalf("Efficiency() = %v, want 0.8", got)
	}
}

func seedShared(store *memory.Store, projectID string, p domain.Project, users ...string) {
	p.ID = projectID
	store.PutProject(p)
	for _, u := range users {
		_ = store.InsertMembership(context.Background(), projectID, u, domain.RoleMember)
	}
}

func TestCompute_StoresCanonicalPair(t *testing.T) {
	store := memory.New()
	seedShared(store, "p1", completed(0, 10, 5), "bob", "alice")
	seedShared(store, "p2", domain.Project{Status: domain.ProjectActive}, "bob", "alice")
	seedShared(store, "p3", domain.Project{Status: domain.ProjectActive}, "bob")

	uc := New(store, store, store, nil, Config{})
	got, err := uc.Compute(context.Background(), "bob", "alice")
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if got.User1ID != "alice" || got.User2ID != "bob" {
		t.Fatalf("pair not canonical: %+v", got)
	}
	if got.Score != 200+100 {
		t.Fatalf("score = %d, want 300", got.Score)
	}

	again, err := uc.Compute(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("second Compute returned error: %v", err)
	}
	if again.Score != got.Score {
		t.Fatalf("recompute changed score: %d != %d", again.Score, got.Score)
	}
	if n := store.ScoreCount(); n != 1 {
		t.Fatalf("expected exactly one stored row, got %d", n)
	}
}

func TestCompute_NoSharedProjectsStoresZero(t *testing.T) {
	store := memory.New()
	seedShared(store, "p1", domain.Project{}, "alice")
	seedShared(store, "p2", domain.Project{}, "bob")

	uc := New(store, store, store, nil, Config{})
	got, err := uc.Compute(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if got.Score != 0 {
		t.Fatalf("score = %d, want 0", got.Score)
	}
}

func TestCompute_RejectsInvalidPair(t *testing.T) {
	uc := New(nil, nil, nil, nil, Config{})
	for _, pair := range [][2]string{{"", "bob"}, {"alice", " "}, {"alice", "alice"}} {
		if _, err := uc.Compute(context.Background(), pair[0], pair[1]); !errors.Is(err, domain.ErrInvalidPair) {
			t.Fatalf("Compute(%q, %q) error = %v, want ErrInvalidPair", pair[0], pair[1], err)
		}
	}
}

type failingProjects struct {
	*memory.Store
	err error
}

func (f failingProjects) GetProject(context.Context, string) (*domain.Project, error) {
	return nil, f.err
}

func TestCompute_ReadFailureWritesNothing(t *testing.T) {
	store := memory.New()
	seedShared(store, "p1", completed(0, 10, 5), "alice", "bob")
	boom := errors.New("connection reset")

	uc := New(store, failingProjects{Store: store, err: boom}, store, nil, Config{})
	_, err := uc.Compute(context.Background(), "alice", "bob")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE classification, got %v", err)
	}
	if n := store.ScoreCount(); n != 0 {
		t.Fatalf("expected no score written, got %d rows", n)
	}
}

type slowProjects struct {
	*memory.Store
}

func (slowProjects) GetProject(ctx context.Context, _ string) (*domain.Project, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCompute_StoreTimeoutIsUnavailable(t *testing.T) {
	store := memory.New()
	seedShared(store, "p1", completed(0, 10, 5), "alice", "bob")

	uc := New(store, slowProjects{store}, store, nil, Config{CallTimeout: 10 * time.Millisecond})
	_, err := uc.Compute(context.Background(), "alice", "bob")
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE on timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestRefreshForUser(t *testing.T) {
	store := memory.New()
	seedShared(store, "p1", completed(0, 10, 5), "alice", "bob", "carol")
	seedShared(store, "p2", domain.Project{}, "alice", "dave")
	seedShared(store, "p3", domain.Project{}, "erin")

	uc := New(store, store, store, nil, Config{RefreshConcurrency: 2})
	scores, err := uc.RefreshForUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("RefreshForUser returned error: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(scores))
	}

	board, err := uc.Leaderboard(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Leaderboard returned error: %v", err)
	}
	if len(board) != 3 || board[0].Score != 250 || board[0].Partner("alice") != "bob" {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}
	if board[2].Partner("alice") != "dave" || board[2].Score != 50 {
		t.Fatalf("expected dave last with 50, got %+v", board[2])
	}
}
