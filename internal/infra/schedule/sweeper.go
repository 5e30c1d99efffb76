// Package schedule runs periodic maintenance jobs for the collaboration domain.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs the invitation sweep every five minutes.
const DefaultSweepSchedule = "@every 5m"

// InvitationExpirer expires pending invitations whose deadline has passed.
type InvitationExpirer interface {
	ExpireInvitations(ctx context.Context, now time.Time) (int, error)
}

// SweepRecorder observes sweep outcomes.
type SweepRecorder interface {
	RecordSweep(expired int, duration time.Duration, err error)
}

// Sweeper periodically expires lapsed invitations. Acceptance also expires
// lazily, so a missed run only delays cleanup.
type Sweeper struct {
	expirer  InvitationExpirer
	recorder SweepRecorder
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewSweeper creates a sweeper. recorder may be nil.
func NewSweeper(expirer InvitationExpirer, recorder SweepRecorder, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		expirer:  expirer,
		recorder: recorder,
		logger:   logger.Named("invitation-sweeper"),
		timeout:  time.Minute,
		now:      time.Now,
	}
}

// Start schedules the sweep. An empty schedule uses DefaultSweepSchedule.
func (s *Sweeper) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Info("invitation sweeper started", zap.String("schedule", schedule))
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("invitation sweeper did not stop in time")
	}
}

// RunOnce performs a single sweep and returns the number of expired invitations.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	expired, err := s.expirer.ExpireInvitations(ctx, s.now())
	duration := time.Since(start)

	if s.recorder != nil {
		s.recorder.RecordSweep(expired, duration, err)
	}
	if err != nil {
		s.logger.Error("invitation sweep failed", zap.Error(err), zap.Duration("duration", duration))
		return expired
	}
	if expired > 0 {
		s.logger.Info("expired invitations", zap.Int("count", expired), zap.Duration("duration", duration))
	}
	return expired
}
