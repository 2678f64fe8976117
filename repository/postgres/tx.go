package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

type transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor returns a Transactor whose repositories share one pgx transaction.
func NewTransactor(pool *pgxpool.Pool) repository.Transactor {
	return &transactor{pool: pool}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.Unavailable("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, txRepositories{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Unavailable("commit transaction", err)
	}
	return nil
}

type txRepositories struct {
	tx pgx.Tx
}

func (r txRepositories) Invitations() repository.InvitationRepository {
	return &invitationRepository{db: r.tx}
}

func (r txRepositories) Memberships() repository.MembershipRepository {
	return &membershipRepository{db: r.tx}
}
