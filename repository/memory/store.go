// Package memory implements every repository port in process. It enforces the
// same uniqueness and compare-and-swap rules as the Postgres schema and is safe
// for concurrent use.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

type memberKey struct {
	projectID string
	userID    string
}

type pairKey struct {
	user1 string
	user2 string
}

type dedupeKey struct {
	userID string
	key    string
}

type state struct {
	projects      map[string]domain.Project
	tasks         map[string]domain.Task
	members       map[memberKey]domain.ProjectMembership
	invitations   map[string]domain.Invitation
	scores        map[pairKey]domain.SynergyScore
	notifications map[string]domain.Notification
	dedupe        map[dedupeKey]string
}

func newState() *state {
	return &state{
		projects:      make(map[string]domain.Project),
		tasks:         make(map[string]domain.Task),
		members:       make(map[memberKey]domain.ProjectMembership),
		invitations:   make(map[string]domain.Invitation),
		scores:        make(map[pairKey]domain.SynergyScore),
		notifications: make(map[string]domain.Notification),
		dedupe:        make(map[dedupeKey]string),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.invitations {
		c.invitations[k] = v
	}
	for k, v := range s.scores {
		c.scores[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.dedupe {
		c.dedupe[k] = v
	}
	return c
}

// Store is an in-memory implementation of the repository ports.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

var (
	_ repository.ProjectRepository      = (*Store)(nil)
	_ repository.TaskRepository         = (*Store)(nil)
	_ repository.MembershipRepository   = (*Store)(nil)
	_ repository.InvitationRepository   = (*Store)(nil)
	_ repository.SynergyRepository      = (*Store)(nil)
	_ repository.NotificationRepository = (*Store)(nil)
	_ repository.DashboardRepository    = (*Store)(nil)
	_ repository.Transactor             = (*Store)(nil)
)

// PutProject inserts or replaces a project. A completed project without
// CompletedAt gets its UpdatedAt, mirroring the database trigger.
func (s *Store) PutProject(p domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	if p.Status == domain.ProjectCompleted && p.CompletedAt == nil {
		at := p.UpdatedAt
		p.CompletedAt = &at
	}
	s.st.projects[p.ID] = p
}

// PutTask inserts or replaces a task.
func (s *Store) PutTask(t domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.TaskToDo
	}
	s.st.tasks[t.ID] = t
}

// Memberships returns every membership of projectID.
func (s *Store) Memberships(projectID string) []domain.ProjectMembership {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ProjectMembership
	for k, m := range s.st.members {
		if k.projectID == projectID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// ScoreCount returns the number of stored synergy rows.
func (s *Store) ScoreCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.scores)
}

func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return &p, nil
}

func (s *Store) ListProjectsNearDeadline(ctx context.Context, userID string, from, to time.Time) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Project
	for _, p := range s.st.projects {
		if p.Status != domain.ProjectActive || !inWindow(p.Deadline, from, to) {
			continue
		}
		if _, ok := s.st.members[memberKey{p.ID, userID}]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(*out[j].Deadline) {
			return out[i].Deadline.Before(*out[j].Deadline)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListUsersWithUpcomingDeadlines(ctx context.Context, from, to time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	for k := range s.st.members {
		p, ok := s.st.projects[k.projectID]
		if ok && p.Status == domain.ProjectActive && inWindow(p.Deadline, from, to) {
			seen[k.userID] = struct{}{}
		}
	}
	for _, t := range s.st.tasks {
		if t.AssigneeID != "" && t.Status != domain.TaskDone && inWindow(t.DueDate, from, to) {
			seen[t.AssigneeID] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) ListTasksNearDueDate(ctx context.Context, userID string, from, to time.Time) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Task
	for _, t := range s.st.tasks {
		if t.AssigneeID != userID || t.Status == domain.TaskDone || !inWindow(t.DueDate, from, to) {
			continue
		}
		if p, ok := s.st.projects[t.ProjectID]; ok {
			t.ProjectTitle = p.Title
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(*out[j].DueDate) {
			return out[i].DueDate.Before(*out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListSharedMemberships(ctx context.Context, userA, userB string) ([]domain.ProjectMembership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ProjectMembership
	for k, m := range s.st.members {
		if k.userID != userA {
			continue
		}
		if _, ok := s.st.members[memberKey{k.projectID, userB}]; ok {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

func (s *Store) ListCollaborators(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.collaborators(userID), nil
}

func (s *Store) InsertMembership(ctx context.Context, projectID, userID string, role domain.MemberRole) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.insertMembership(projectID, userID, role, s.now())
}

func (s *Store) GetInvitation(ctx context.Context, id string) (*domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getInvitation(id)
}

func (s *Store) InsertInvitation(ctx context.Context, invitation *domain.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.insertInvitation(invitation, s.now())
}

func (s *Store) CompareAndSetInvitationStatus(ctx context.Context, id string, expected, next domain.InvitationStatus, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.casInvitation(id, expected, next, at), nil
}

func (s *Store) ListPendingByProject(ctx context.Context, projectID string) ([]domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.pendingInvitations(func(i domain.Invitation) bool { return i.ProjectID == projectID }), nil
}

func (s *Store) ListPendingByEmail(ctx context.Context, email string) ([]domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.pendingInvitations(func(i domain.Invitation) bool { return i.Email == email }), nil
}

func (s *Store) UpsertSynergyScore(ctx context.Context, userA, userB string, score int, at time.Time) (*domain.SynergyScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userA == "" || userB == "" || userA == userB || score < 0 {
		return nil, domain.ErrInvalidPair
	}
	if at.IsZero() {
		at = s.now()
	}
	user1, user2 := domain.CanonicalPair(userA, userB)
	row := domain.SynergyScore{User1ID: user1, User2ID: user2, Score: score, UpdatedAt: at}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.scores[pairKey{user1, user2}] = row
	return &row, nil
}

func (s *Store) ListSynergyScores(ctx context.Context, userID string) ([]domain.SynergyScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.scoresFor(userID), nil
}

func (s *Store) InsertNotification(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n == nil || n.UserID == "" || !n.Type.Valid() {
		return domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.DedupeKey != "" {
		if _, ok := s.st.dedupe[dedupeKey{n.UserID, n.DedupeKey}]; ok {
			return domain.ErrNotificationExists
		}
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.st.notifications[n.ID] = *n
	if n.DedupeKey != "" {
		s.st.dedupe[dedupeKey{n.UserID, n.DedupeKey}] = n.ID
	}
	return nil
}

func (s *Store) NotificationExists(ctx context.Context, userID, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if key == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.dedupe[dedupeKey{userID, key}]
	return ok, nil
}

func (s *Store) ListNotifications(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.st.notifications {
		if n.UserID != filter.UserID || (filter.UnreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.st.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.st.notifications[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotificationNotFound
	}
	n.Read = true
	s.st.notifications[id] = n
	return nil
}

func (s *Store) DashboardStats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats domain.DashboardStats
	for k := range s.st.members {
		if k.userID == userID {
			stats.TotalProjects++
		}
	}
	for _, t := range s.st.tasks {
		if t.AssigneeID == userID && t.Status != domain.TaskDone {
			stats.ActiveTasks++
		}
	}
	if scores := s.st.scoresFor(userID); len(scores) > 0 {
		total := 0
		for _, sc := range scores {
			total += sc.Score
		}
		stats.SynergyScore = int(math.Round(float64(total) / float64(len(scores))))
	}
	stats.TeamMembers = len(s.st.collaborators(userID))
	return &stats, nil
}

// WithinTx runs fn against a private copy of the data and publishes it only
// when fn succeeds. The store lock is held for the whole call.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(ctx, txView{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (st *state) collaborators(userID string) []string {
	seen := make(map[string]struct{})
	for k := range st.members {
		if k.userID != userID {
			continue
		}
		for other := range st.members {
			if other.projectID == k.projectID && other.userID != userID {
				seen[other.userID] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

func (st *state) insertMembership(projectID, userID string, role domain.MemberRole, now time.Time) error {
	key := memberKey{projectID, userID}
	if _, ok := st.members[key]; ok {
		return domain.ErrMembershipExists
	}
	st.members[key] = domain.ProjectMembership{ProjectID: projectID, UserID: userID, Role: role, JoinedAt: now}
	return nil
}

func (st *state) getInvitation(id string) (*domain.Invitation, error) {
	inv, ok := st.invitations[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	return &inv, nil
}

func (st *state) insertInvitation(invitation *domain.Invitation, now time.Time) error {
	if invitation == nil {
		return domain.ErrInvalidPayload
	}
	if invitation.Status == domain.InvitationPending {
		for _, existing := range st.invitations {
			if existing.Status == domain.InvitationPending &&
				existing.ProjectID == invitation.ProjectID &&
				existing.Email == invitation.Email {
				return domain.ErrDuplicatePendingInvitation
			}
		}
	}
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = now
	}
	invitation.UpdatedAt = invitation.CreatedAt
	st.invitations[invitation.ID] = *invitation
	return nil
}

func (st *state) casInvitation(id string, expected, next domain.InvitationStatus, at time.Time) bool {
	inv, ok := st.invitations[id]
	if !ok || inv.Status != expected {
		return false
	}
	inv.Status = next
	if at.Before(inv.CreatedAt) {
		at = inv.CreatedAt
	}
	inv.UpdatedAt = at
	st.invitations[id] = inv
	return true
}

func (st *state) pendingInvitations(match func(domain.Invitation) bool) []domain.Invitation {
	var out []domain.Invitation
	for _, inv := range st.invitations {
		if inv.Status == domain.InvitationPending && match(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (st *state) scoresFor(userID string) []domain.SynergyScore {
	var out []domain.SynergyScore
	for k, sc := range st.scores {
		if k.user1 == userID || k.user2 == userID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Partner(userID) < out[j].Partner(userID)
	})
	return out
}

type txView struct {
	st  *state
	now func() time.Time
}

func (t txView) Invitations() repository.InvitationRepository { return txInvitations(t) }
func (t txView) Memberships() repository.MembershipRepository { return txMemberships(t) }

type txInvitations txView

func (t txInvitations) GetInvitation(_ context.Context, id string) (*domain.Invitation, error) {
	return t.st.getInvitation(id)
}

func (t txInvitations) InsertInvitation(_ context.Context, invitation *domain.Invitation) error {
	return t.st.insertInvitation(invitation, t.now())
}

func (t txInvitations) CompareAndSetInvitationStatus(_ context.Context, id string, expected, next domain.InvitationStatus, at time.Time) (bool, error) {
	return t.st.casInvitation(id, expected, next, at), nil
}

func (t txInvitations) ListPendingByProject(_ context.Context, projectID string) ([]domain.Invitation, error) {
	return t.st.pendingInvitations(func(i domain.Invitation) bool { return i.ProjectID == projectID }), nil
}

func (t txInvitations) ListPendingByEmail(_ context.Context, email string) ([]domain.Invitation, error) {
	return t.st.pendingInvitations(func(i domain.Invitation) bool { return i.Email == email }), nil
}

type txMemberships txView

func (t txMemberships) ListSharedMemberships(_ context.Context, userA, userB string) ([]domain.ProjectMembership, error) {
	var out []domain.ProjectMembership
	for k, m := range t.st.members {
		if k.userID != userA {
			continue
		}
		if _, ok := t.st.members[memberKey{k.projectID, userB}]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (t txMemberships) ListCollaborators(_ context.Context, userID string) ([]string, error) {
	return t.st.collaborators(userID), nil
}

func (t txMemberships) InsertMembership(_ context.Context, projectID, userID string, role domain.MemberRole) error {
	return t.st.insertMembership(projectID, userID, role, t.now())
}

func inWindow(at *time.Time, from, to time.Time) bool {
	return at != nil && !at.Before(from) && !at.After(to)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
