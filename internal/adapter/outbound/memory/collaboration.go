// Package memory provides in-process implementations of the collaboration
// storage ports. Transactions serialise on a store-wide lock and roll back by
// restoring a snapshot.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/outbound"
)

type txKey struct{}

// Store holds teams and invitations in memory.
type Store struct {
	mu          sync.Mutex
	teams       map[uuid.UUID]*model.Team
	invitations map[uuid.UUID]*model.TeamInvitation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		teams:       make(map[uuid.UUID]*model.Team),
		invitations: make(map[uuid.UUID]*model.TeamInvitation),
	}
}

// Teams returns the team port backed by this store.
func (s *Store) Teams() *TeamAdapter {
	return &TeamAdapter{s: s}
}

// Invitations returns the invitation port backed by this store.
func (s *Store) Invitations() *InvitationAdapter {
	return &InvitationAdapter{s: s}
}

// RunInTransaction executes fn holding the store lock. Any error restores the
// state seen when the transaction began. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	teams, invitations := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.teams, s.invitations = teams, invitations
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// lock takes the store lock unless ctx already runs inside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) snapshot() (map[uuid.UUID]*model.Team, map[uuid.UUID]*model.TeamInvitation) {
	teams := make(map[uuid.UUID]*model.Team, len(s.teams))
	for id, t := range s.teams {
		teams[id] = t.Clone()
	}
	invitations := make(map[uuid.UUID]*model.TeamInvitation, len(s.invitations))
	for id, inv := range s.invitations {
		invitations[id] = cloneInvitation(inv)
	}
	return teams, invitations
}

func cloneInvitation(inv *model.TeamInvitation) *model.TeamInvitation {
	cp := *inv
	if inv.RespondedAt != nil {
		at := *inv.RespondedAt
		cp.RespondedAt = &at
	}
	return &cp
}

// ========== Team Adapter ==========

// TeamAdapter implements TeamDatabasePort.
type TeamAdapter struct {
	s *Store
}

var _ outbound.TeamDatabasePort = (*TeamAdapter)(nil)

func (a *TeamAdapter) Create(ctx context.Context, team *model.Team) error {
	defer a.s.lock(ctx)()
	if _, ok := a.s.teams[team.ID]; ok {
		return fmt.Errorf("team %s already exists", team.ID)
	}
	a.s.teams[team.ID] = team.Clone()
	return nil
}

func (a *TeamAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	defer a.s.lock(ctx)()
	t, ok := a.s.teams[id]
	if !ok {
		return nil, outbound.ErrRecordNotFound
	}
	return t.Clone(), nil
}

func (a *TeamAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	return a.FindByID(ctx, id)
}

func (a *TeamAdapter) FindByTaskID(ctx context.Context, taskID uuid.UUID) (*model.Team, error) {
	defer a.s.lock(ctx)()
	for _, t := range a.s.teams {
		if _, ok := t.FindTask(taskID); ok {
			return t.Clone(), nil
		}
	}
	return nil, outbound.ErrRecordNotFound
}

func (a *TeamAdapter) FindActiveByEventAndMember(ctx context.Context, eventID, enrollmentNo string) ([]*model.Team, error) {
	return a.filter(ctx, func(t *model.Team) bool {
		return t.EventID == eventID && t.IsActive() && t.HasMember(enrollmentNo)
	}), nil
}

func (a *TeamAdapter) FindByMember(ctx context.Context, enrollmentNo string) ([]*model.Team, error) {
	return a.filter(ctx, func(t *model.Team) bool {
		return t.HasMember(enrollmentNo)
	}), nil
}

func (a *TeamAdapter) Save(ctx context.Context, team *model.Team) error {
	defer a.s.lock(ctx)()
	stored, ok := a.s.teams[team.ID]
	if !ok {
		return outbound.ErrRecordNotFound
	}
	if stored.Version != team.Version {
		return outbound.ErrVersionConflict
	}
	team.Version++
	a.s.teams[team.ID] = team.Clone()
	return nil
}

func (a *TeamAdapter) filter(ctx context.Context, keep func(*model.Team) bool) []*model.Team {
	defer a.s.lock(ctx)()
	out := make([]*model.Team, 0)
	for _, t := range a.s.teams {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ========== Invitation Adapter ==========

// InvitationAdapter implements InvitationDatabasePort.
type InvitationAdapter struct {
	s *Store
}

var _ outbound.InvitationDatabasePort = (*InvitationAdapter)(nil)

func (a *InvitationAdapter) Create(ctx context.Context, invitation *model.TeamInvitation) error {
	defer a.s.lock(ctx)()
	if _, ok := a.s.invitations[invitation.ID]; ok {
		return fmt.Errorf("invitation %s already exists", invitation.ID)
	}
	a.s.invitations[invitation.ID] = cloneInvitation(invitation)
	return nil
}

func (a *InvitationAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.TeamInvitation, error) {
	defer a.s.lock(ctx)()
	inv, ok := a.s.invitations[id]
	if !ok {
		return nil, outbound.ErrRecordNotFound
	}
	return cloneInvitation(inv), nil
}

func (a *InvitationAdapter) FindPending(ctx context.Context, teamID uuid.UUID, enrollmentNo string) (*model.TeamInvitation, error) {
	found := a.filter(ctx, func(inv *model.TeamInvitation) bool {
		return inv.TeamID == teamID && inv.InviteeEnrollmentNo == enrollmentNo && inv.Status == model.InvitationStatusPending
	}, 1)
	if len(found) == 0 {
		return nil, outbound.ErrRecordNotFound
	}
	return found[0], nil
}

func (a *InvitationAdapter) FindByTeam(ctx context.Context, teamID uuid.UUID, status *model.InvitationStatus) ([]*model.TeamInvitation, error) {
	return a.filter(ctx, func(inv *model.TeamInvitation) bool {
		return inv.TeamID == teamID && (status == nil || inv.Status == *status)
	}, 0), nil
}

func (a *InvitationAdapter) FindByInvitee(ctx context.Context, enrollmentNo string, status *model.InvitationStatus) ([]*model.TeamInvitation, error) {
	return a.filter(ctx, func(inv *model.TeamInvitation) bool {
		return inv.InviteeEnrollmentNo == enrollmentNo && (status == nil || inv.Status == *status)
	}, 0), nil
}

func (a *InvitationAdapter) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.TeamInvitation, error) {
	return a.filter(ctx, func(inv *model.TeamInvitation) bool {
		return inv.Status == model.InvitationStatusPending && inv.IsExpired(now)
	}, limit), nil
}

func (a *InvitationAdapter) Transition(ctx context.Context, id uuid.UUID, from, to model.InvitationStatus, at time.Time) error {
	defer a.s.lock(ctx)()
	inv, ok := a.s.invitations[id]
	if !ok {
		return outbound.ErrRecordNotFound
	}
	if inv.Status != from {
		return outbound.ErrVersionConflict
	}
	inv.Status = to
	inv.RespondedAt = &at
	return nil
}

func (a *InvitationAdapter) ExpirePendingByTeam(ctx context.Context, teamID uuid.UUID, at time.Time) (int, error) {
	defer a.s.lock(ctx)()
	n := 0
	for _, inv := range a.s.invitations {
		if inv.TeamID == teamID && inv.Status == model.InvitationStatusPending {
			inv.Status = model.InvitationStatusExpired
			respondedAt := at
			inv.RespondedAt = &respondedAt
			n++
		}
	}
	return n, nil
}

// filter returns matching invitations oldest first; limit <= 0 means no limit.
func (a *InvitationAdapter) filter(ctx context.Context, keep func(*model.TeamInvitation) bool, limit int) []*model.TeamInvitation {
	defer a.s.lock(ctx)()
	out := make([]*model.TeamInvitation, 0)
	for _, inv := range a.s.invitations {
		if keep(inv) {
			out = append(out, cloneInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
