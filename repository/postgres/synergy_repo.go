package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

type synergyRepository struct {
	db querier
}

// NewSynergyRepository returns a Postgres-backed implementation of SynergyRepository.
func NewSynergyRepository(pool *pgxpool.Pool) repository.SynergyRepository {
	return &synergyRepository{db: pool}
}

func (r *synergyRepository) UpsertSynergyScore(ctx context.Context, userA, userB string, score int, at time.Time) (*domain.SynergyScore, error) {
	if userA == "" || userB == "" || userA == userB || score < 0 {
		return nil, domain.ErrInvalidPair
	}
	user1, user2 := domain.CanonicalPair(userA, userB)

	const query = `
	INSERT INTO synergy_scores (user1_id, user2_id, score, updated_at)
	VALUES ($1, $2, $3, COALESCE($4, NOW()))
	ON CONFLICT (user1_id, user2_id) DO UPDATE
	SET score = EXCLUDED.score,
		updated_at = EXCLUDED.updated_at
	RETURNING user1_id, user2_id, score, updated_at
	`
	var out domain.SynergyScore
	if err := r.db.QueryRow(ctx, query, user1, user2, score, nullTime(at)).
		Scan(&out.User1ID, &out.User2ID, &out.Score, &out.UpdatedAt); err != nil {
		return nil, storeErr("upsert synergy score", err, nil)
	}
	return &out, nil
}

func (r *synergyRepository) ListSynergyScores(ctx context.Context, userID string) ([]domain.SynergyScore, error) {
	const query = `
	SELECT user1_id, user2_id, score, updated_at
	FROM synergy_scores
	WHERE user1_id = $1 OR user2_id = $1
	ORDER BY score DESC, user1_id, user2_id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storeErr("list synergy scores", err, nil)
	}
	defer rows.Close()

	var scores []domain.SynergyScore
	for rows.Next() {
		var s domain.SynergyScore
		if err := rows.Scan(&s.User1ID, &s.User2ID, &s.Score, &s.UpdatedAt); err != nil {
			return nil, storeErr("scan synergy score", err, nil)
		}
		scores = append(scores, s)
	}
	return scores, storeErr("list synergy scores", rows.Err(), nil)
}
