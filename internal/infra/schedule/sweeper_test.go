package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calls atomic.Int32
	count int
	err   error
	at    atomic.Value
}

func (f *fakeExpirer) ExpireInvitations(_ context.Context, now time.Time) (int, error) {
	f.calls.Add(1)
	f.at.Store(now)
	return f.count, f.err
}

type fakeRecorder struct {
	expired int
	errs    int
	runs    int
}

func (r *fakeRecorder) RecordSweep(expired int, _ time.Duration, err error) {
	r.runs++
	if err != nil {
		r.errs++
		return
	}
	r.expired += expired
}

func TestSweeper_RunOnce(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("records expired count", func(t *testing.T) {
		expirer := &fakeExpirer{count: 3}
		recorder := &fakeRecorder{}
		s := NewSweeper(expirer, recorder, nil)
		s.now = func() time.Time { return fixed }

		assert.Equal(t, 3, s.RunOnce(context.Background()))
		assert.Equal(t, fixed, expirer.at.Load())
		assert.Equal(t, 3, recorder.expired)
	})

	t.Run("records failure", func(t *testing.T) {
		recorder := &fakeRecorder{}
		s := NewSweeper(&fakeExpirer{err: errors.New("db down")}, recorder, nil)

		assert.Equal(t, 0, s.RunOnce(context.Background()))
		assert.Equal(t, 1, recorder.errs)
	})

	t.Run("nil recorder", func(t *testing.T) {
		s := NewSweeper(&fakeExpirer{count: 1}, nil, nil)
		assert.Equal(t, 1, s.RunOnce(context.Background()))
	})
}

func TestSweeper_Schedule(t *testing.T) {
	expirer := &fakeExpirer{}
	s := NewSweeper(expirer, nil, nil)

	require.NoError(t, s.Start("@every 1s"))
	require.NoError(t, s.Start("@every 1s"), "second start is a no-op")

	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	s := NewSweeper(&fakeExpirer{}, nil, nil)
	assert.Error(t, s.Start("not a schedule"))
}
