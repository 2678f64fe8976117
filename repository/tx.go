package repository

import "context"

// Tx exposes the repositories whose writes must commit together.
type Tx interface {
	Invitations() InvitationRepository
	Memberships() MembershipRepository
}

// Transactor runs fn inside a single store transaction. Returning an error from
// fn rolls back every write made through tx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
