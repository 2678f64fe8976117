package repository

import (
	"context"
	"time"

	"github.com/fastygo/collab/domain"
)

type SynergyRepository interface {
	// UpsertSynergyScore stores score for the unordered pair, replacing any previous value.
	UpsertSynergyScore(ctx context.Context, userA, userB string, score int, at time.Time) (*domain.SynergyScore, error)
	// ListSynergyScores returns every pair involving userID, highest score first.
	ListSynergyScores(ctx context.Context, userID string) ([]domain.SynergyScore, error)
}
