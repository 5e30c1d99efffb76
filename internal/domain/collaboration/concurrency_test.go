package collaboration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/inbound"
)

func enrollment(i int) string {
	return fmt.Sprintf("22EC%05d", i)
}

func TestConcurrentAddsRespectMaxSize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	team := f.seedTeam(t, model.MembershipModeDirect, leader, member2)

	const attempts = 20
	var (
		wg      sync.WaitGroup
		added   atomic.Int32
		rejects atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.domain.AddMember(ctx, team.ID, enrollment(i), leader)
			switch {
			case err == nil:
				added.Add(1)
			case assert.ErrorIs(t, err, ErrTeamFull):
				rejects.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(2), added.Load())
	assert.Equal(t, int32(attempts-2), rejects.Load())
	stored := f.team(t, team.ID)
	assert.Len(t, stored.Members, 4)
	assert.Len(t, stored.MemberEnrollments, 4)
	assert.Zero(t, f.domain.locks.size())
}

func TestConcurrentAddRemoveStaysWithinBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	team := f.seedTeam(t, model.MembershipModeDirect, leader, member2, member3)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = f.domain.AddMember(ctx, team.ID, enrollment(i), leader)
		}(i)
		go func(no string) {
			defer wg.Done()
			_ = f.domain.RemoveMember(ctx, team.ID, no, leader)
		}([]string{member2, member3}[i%2])
	}
	wg.Wait()

	stored := f.team(t, team.ID)
	assert.GreaterOrEqual(t, len(stored.Members), stored.MinSize)
	assert.LessOrEqual(t, len(stored.Members), stored.MaxSize)
	assert.True(t, stored.HasMember(leader))
}

func TestConcurrentReviewsApplyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	team := f.seedTeam(t, model.MembershipModeDirect, leader, member2)
	task := f.createTask(t, team.ID, member2)
	f.submit(t, task.ID, member2)

	decisions := []string{"approved", "rejected", "needs_revision", "approved", "rejected"}
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for _, d := range decisions {
		wg.Add(1)
		go func(d string) {
			defer wg.Done()
			_, err := f.domain.Review(ctx, task.ID, leader, &inbound.ReviewTaskInput{Decision: d})
			if err == nil {
				succeeded.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrNotSubmitted)
		}(d)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	got, err := f.domain.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.NotEqual(t, model.TaskStatusSubmitted, got.Status)
}

func TestConcurrentTeamCreationSingleRegistration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.domain.CreateTeam(ctx, leader, &inbound.CreateTeamInput{EventID: eventID, Name: fmt.Sprintf("Team %d", i)})
			if err == nil {
				created.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrAlreadyRegisteredForEvent)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	teams, err := f.domain.ListTeamsForStudent(ctx, leader)
	require.NoError(t, err)
	assert.Len(t, teams, 1)
}

func TestKeyedMutex(t *testing.T) {
	m := newKeyedMutex()

	unlockA := m.Lock("a")
	unlockB := m.Lock("b")
	assert.Equal(t, 2, m.size())

	acquired := make(chan struct{})
	go func() {
		unlock := m.Lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held key")
	default:
	}

	unlockA()
	<-acquired
	unlockB()
	assert.Zero(t, m.size())
}
