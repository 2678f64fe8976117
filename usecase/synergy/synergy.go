package synergy

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/usecase"
)

const (
	completionBase   = 100.0
	efficiencyWeight = 200.0
	breadthPerShared = 50
	breadthCap       = 200
)

// Score computes the synergy of a pair from the projects they share. Every
// completed project contributes 100 plus up to 200 for finishing ahead of its
// deadline; every shared project adds 50 to a breadth bonus capped at 200.
func Score(shared []domain.Project) int {
	if len(shared) == 0 {
		return 0
	}
	total := 0.0
	for i := range shared {
		if !shared[i].IsCompleted() {
			continue
		}
		total += completionBase + Efficiency(&shared[i])*efficiencyWeight
	}
	total += float64(min(len(shared)*breadthPerShared, breadthCap))
	return int(math.Round(total))
}

// Efficiency is the share of the planned duration left unused at completion,
// clamped to [0, 1]. Projects without a usable deadline score 0.
func Efficiency(p *domain.Project) float64 {
	if p == nil || p.Deadline == nil {
		return 0
	}
	planned := p.Deadline.Sub(p.CreatedAt)
	if planned <= 0 {
		return 0
	}
	actual := p.CompletionTime().Sub(p.CreatedAt)
	ratio := float64(planned-actual) / float64(planned)
	return math.Max(0, math.Min(1, ratio))
}

type UseCase struct {
	memberships repository.MembershipRepository
	projects    repository.ProjectRepository
	scores      repository.SynergyRepository
	logger      *zap.Logger
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

type Config struct {
	CallTimeout        time.Duration
	RefreshConcurrency int
}

func New(
	memberships repository.MembershipRepository,
	projects repository.ProjectRepository,
	scores repository.SynergyRepository,
	logger *zap.Logger,
	cfg Config,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshConcurrency <= 0 {
		cfg.RefreshConcurrency = 4
	}
	return &UseCase{
		memberships: memberships,
		projects:    projects,
		scores:      scores,
		logger:      logger,
		timeout:     cfg.CallTimeout,
		concurrency: cfg.RefreshConcurrency,
		now:         time.Now,
	}
}

// Compute recomputes and stores the score of an unordered pair. Nothing is
// written unless every read succeeds.
func (uc *UseCase) Compute(ctx context.Context, userA, userB string) (*domain.SynergyScore, error) {
	userA, userB = strings.TrimSpace(userA), strings.TrimSpace(userB)
	if userA == "" || userB == "" || userA == userB {
		return nil, domain.ErrInvalidPair
	}

	shared, err := usecase.Fetch(ctx, uc.timeout, "list shared memberships", func(ctx context.Context) ([]domain.ProjectMembership, error) {
		return uc.memberships.ListSharedMemberships(ctx, userA, userB)
	})
	if err != nil {
		return nil, err
	}

	projects := make([]domain.Project, 0, len(shared))
	seen := make(map[string]struct{}, len(shared))
	for _, m := range shared {
		if _, dup := seen[m.ProjectID]; dup {
			continue
		}
		seen[m.ProjectID] = struct{}{}

		project, err := usecase.Fetch(ctx, uc.timeout, "get project", func(ctx context.Context) (*domain.Project, error) {
			return uc.projects.GetProject(ctx, m.ProjectID)
		})
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}

	score := Score(projects)
	stored, err := usecase.Fetch(ctx, uc.timeout, "upsert synergy score", func(ctx context.Context) (*domain.SynergyScore, error) {
		return uc.scores.UpsertSynergyScore(ctx, userA, userB, score, uc.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("synergy score updated",
		zap.String("user1_id", stored.User1ID),
		zap.String("user2_id", stored.User2ID),
		zap.Int("shared_projects", len(projects)),
		zap.Int("score", stored.Score))
	return stored, nil
}

// Leaderboard lists the scores involving userID, highest first.
func (uc *UseCase) Leaderboard(ctx context.Context, userID string) ([]domain.SynergyScore, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidPair
	}
	return usecase.Fetch(ctx, uc.timeout, "list synergy scores", func(ctx context.Context) ([]domain.SynergyScore, error) {
		return uc.scores.ListSynergyScores(ctx, userID)
	})
}

// RefreshForUser recomputes userID's score with every collaborator. Pairs are
// independent rows, so they are computed concurrently; the first failure
// cancels the remaining work but scores already stored stay in place.
func (uc *UseCase) RefreshForUser(ctx context.Context, userID string) ([]domain.SynergyScore, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidPair
	}

	collaborators, err := usecase.Fetch(ctx, uc.timeout, "list collaborators", func(ctx context.Context) ([]string, error) {
		return uc.memberships.ListCollaborators(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	results := make([]domain.SynergyScore, len(collaborators))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, other := range collaborators {
		g.Go(func() error {
			score, err := uc.Compute(gctx, userID, other)
			if err != nil {
				return err
			}
			results[i] = *score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.logger.Error("synergy refresh failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("synergy refreshed", zap.String("user_id", userID), zap.Int("pairs", len(results)))
	return results, nil
}
