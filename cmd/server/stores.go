package main

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/repository/memory"
	"github.com/fastygo/collab/repository/postgres"
)

type stores struct {
	projects      repository.ProjectRepository
	tasks         repository.TaskRepository
	memberships   repository.MembershipRepository
	invitations   repository.InvitationRepository
	synergy       repository.SynergyRepository
	notifications repository.NotificationRepository
	dashboard     repository.DashboardRepository
	tx            repository.Transactor
}

func postgresStores(pool *pgxpool.Pool) stores {
	return stores{
		projects:      postgres.NewProjectRepository(pool),
		tasks:         postgres.NewTaskRepository(pool),
		memberships:   postgres.NewMembershipRepository(pool),
		invitations:   postgres.NewInvitationRepository(pool),
		synergy:       postgres.NewSynergyRepository(pool),
		notifications: postgres.NewNotificationRepository(pool),
		dashboard:     postgres.NewDashboardRepository(pool),
		tx:            postgres.NewTransactor(pool),
	}
}

func memoryStores(store *memory.Store) stores {
	return stores{
		projects:      store,
		tasks:         store,
		memberships:   store,
		invitations:   store,
		synergy:       store,
		notifications: store,
		dashboard:     store,
		tx:            store,
	}
}
