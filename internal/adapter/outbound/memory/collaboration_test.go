package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/outbound"
)

func newTeam(eventID string, members ...string) *model.Team {
	t := &model.Team{
		ID:        uuid.New(),
		EventID:   eventID,
		Status:    model.TeamStatusActive,
		LeaderID:  members[0],
		CreatedAt: time.Now(),
	}
	for _, m := range members {
		t.Members = append(t.Members, model.TeamMember{EnrollmentNo: m})
	}
	t.SyncIndexes()
	return t
}

func TestTeamAdapter_SaveIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	teams := NewStore().Teams()
	team := newTeam("evt", "21CS00001")
	require.NoError(t, teams.Create(ctx, team))

	first, err := teams.FindByID(ctx, team.ID)
	require.NoError(t, err)
	second, err := teams.FindByID(ctx, team.ID)
	require.NoError(t, err)

	first.Name = "first"
	require.NoError(t, teams.Save(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	second.Name = "second"
	assert.ErrorIs(t, teams.Save(ctx, second), outbound.ErrVersionConflict)

	stored, err := teams.FindByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Name)
}

func TestTeamAdapter_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	teams := NewStore().Teams()
	team := newTeam("evt", "21CS00001")
	require.NoError(t, teams.Create(ctx, team))

	got, err := teams.FindByID(ctx, team.ID)
	require.NoError(t, err)
	got.Members = nil

	again, err := teams.FindByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, again.Members, 1)
}

func TestTeamAdapter_Queries(t *testing.T) {
	ctx := context.Background()
	teams := NewStore().Teams()
	a := newTeam("evt-1", "21CS00001", "21CS00002")
	taskID := uuid.New()
	a.Tasks = []model.Task{{ID: taskID}}
	b := newTeam("evt-2", "21CS00002")
	c := newTeam("evt-1", "21CS00003")
	c.Status = model.TeamStatusCancelled
	for _, team := range []*model.Team{a, b, c} {
		require.NoError(t, teams.Create(ctx, team))
	}

	got, err := teams.FindActiveByEventAndMember(ctx, "evt-1", "21CS00002")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	mine, err := teams.FindByMember(ctx, "21CS00002")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	owner, err := teams.FindByTaskID(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, owner.ID)

	_, err = teams.FindByTaskID(ctx, uuid.New())
	assert.ErrorIs(t, err, outbound.ErrRecordNotFound)
}

func TestStore_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	teams := store.Teams()
	invitations := store.Invitations()
	team := newTeam("evt", "21CS00001")
	require.NoError(t, teams.Create(ctx, team))

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(txCtx context.Context) error {
		loaded, err := teams.FindByIDForUpdate(txCtx, team.ID)
		require.NoError(t, err)
		loaded.Name = "changed"
		require.NoError(t, teams.Save(txCtx, loaded))
		require.NoError(t, invitations.Create(txCtx, &model.TeamInvitation{ID: uuid.New(), TeamID: team.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := teams.FindByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Name)
	assert.Equal(t, int64(0), stored.Version)

	all, err := invitations.FindByTeam(ctx, team.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInvitationAdapter_Transition(t *testing.T) {
	ctx := context.Background()
	invitations := NewStore().Invitations()
	inv := &model.TeamInvitation{
		ID:                  uuid.New(),
		TeamID:              uuid.New(),
		InviteeEnrollmentNo: "21CS00004",
		Status:              model.InvitationStatusPending,
		ExpiresAt:           time.Now().Add(time.Hour),
	}
	require.NoError(t, invitations.Create(ctx, inv))

	pending, err := invitations.FindPending(ctx, inv.TeamID, "21CS00004")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, pending.ID)

	require.NoError(t, invitations.Transition(ctx, inv.ID, model.InvitationStatusPending, model.InvitationStatusAccepted, time.Now()))
	err = invitations.Transition(ctx, inv.ID, model.InvitationStatusPending, model.InvitationStatusExpired, time.Now())
	assert.ErrorIs(t, err, outbound.ErrVersionConflict)

	_, err = invitations.FindPending(ctx, inv.TeamID, "21CS00004")
	assert.ErrorIs(t, err, outbound.ErrRecordNotFound)
}

func TestInvitationAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	invitations := NewStore().Invitations()
	teamID := uuid.New()
	now := time.Now()
	lapsed := &model.TeamInvitation{ID: uuid.New(), TeamID: teamID, Status: model.InvitationStatusPending, ExpiresAt: now.Add(-time.Minute)}
	fresh := &model.TeamInvitation{ID: uuid.New(), TeamID: teamID, Status: model.InvitationStatusPending, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, invitations.Create(ctx, lapsed))
	require.NoError(t, invitations.Create(ctx, fresh))

	due, err := invitations.FindExpiredPending(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, lapsed.ID, due[0].ID)

	n, err := invitations.ExpirePendingByTeam(ctx, teamID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	expired := model.InvitationStatusExpired
	all, err := invitations.FindByTeam(ctx, teamID, &expired)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
