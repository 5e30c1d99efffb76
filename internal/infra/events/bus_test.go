package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	mu     sync.Mutex
	name   string
	types  []string
	seen   []string
	err    error
	panics bool
}

func (h *recordingHandler) Name() string      { return h.name }
func (h *recordingHandler) Handles() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, event Event) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	h.seen = append(h.seen, event.EventType())
	h.mu.Unlock()
	return h.err
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus(zap.NewNop())
	submitted := &recordingHandler{name: "submitted", types: []string{TaskSubmittedType}}
	all := &recordingHandler{name: "all"}
	bus.Register(submitted)
	bus.Register(all)

	teamID := uuid.New()
	bus.Publish(context.Background(), NewTaskEvent(TaskSubmittedType, teamID, uuid.New(), "Slides", "21CS00002", "submitted", "https://x", time.Now(), "21CS00001"))
	bus.Publish(context.Background(), NewMemberAddedEvent(teamID, "21CS00003", "21CS00001", nil, time.Now()))

	assert.Equal(t, []string{TaskSubmittedType}, submitted.seen)
	assert.Equal(t, []string{TaskSubmittedType, MemberAddedType}, all.seen)
}

func TestBus_IsolatesFailures(t *testing.T) {
	bus := NewBus(zap.NewNop())
	failing := &recordingHandler{name: "failing", err: errors.New("redis down")}
	panicking := &recordingHandler{name: "panicking", panics: true}
	last := &recordingHandler{name: "last"}
	bus.Register(failing)
	bus.Register(panicking)
	bus.Register(last)

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), NewTeamCreatedEvent(uuid.New(), "evt-1", "Alpha", "21CS00001", time.Now()))
	})
	assert.Equal(t, []string{TeamCreatedType}, last.seen)
}

func TestBus_IgnoresCallerCancellation(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var handlerErr error
	bus.Register(NewHandlerFunc("ctx", nil, func(ctx context.Context, _ Event) error {
		handlerErr = ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, NewTeamCreatedEvent(uuid.New(), "evt-1", "Alpha", "21CS00001", time.Now()))

	assert.NoError(t, handlerErr)
}

func TestBus_StartedPublishDoesNotWait(t *testing.T) {
	bus := NewBus(zap.NewNop())
	release := make(chan struct{})
	var (
		mu   sync.Mutex
		seen []string
	)
	bus.Register(NewHandlerFunc("stalled", nil, func(ctx context.Context, e Event) error {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		mu.Lock()
		seen = append(seen, e.EventType())
		mu.Unlock()
		return nil
	}))
	bus.Start(8)

	teamID := uuid.New()
	start := time.Now()
	bus.Publish(context.Background(), NewTeamCreatedEvent(teamID, "evt-1", "Alpha", "21CS00001", time.Now()))
	bus.Publish(context.Background(), NewMemberAddedEvent(teamID, "21CS00002", "21CS00001", nil, time.Now()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{TeamCreatedType, MemberAddedType}, seen)
}

func TestBus_FullQueueDropsEvents(t *testing.T) {
	bus := NewBus(zap.NewNop())
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	handled := &recordingHandler{name: "after"}
	bus.Register(NewHandlerFunc("blocking", nil, func(ctx context.Context, _ Event) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}))
	bus.Register(handled)
	bus.Start(1)

	teamID := uuid.New()
	publish := func() {
		bus.Publish(context.Background(), NewTeamCreatedEvent(teamID, "evt-1", "Alpha", "21CS00001", time.Now()))
	}
	publish()
	<-started // the worker holds the first event
	publish() // fills the queue
	publish() // dropped

	close(release)
	require.NoError(t, bus.Close(context.Background()))
	handled.mu.Lock()
	defer handled.mu.Unlock()
	assert.Len(t, handled.seen, 2)
}

func TestBus_CloseReturnsToInlineDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())
	handled := &recordingHandler{name: "all"}
	bus.Register(handled)
	bus.Start(4)
	require.NoError(t, bus.Close(context.Background()))
	require.NoError(t, bus.Close(context.Background()))

	bus.Publish(context.Background(), NewTeamCreatedEvent(uuid.New(), "evt-1", "Alpha", "21CS00001", time.Now()))
	assert.Equal(t, []string{TeamCreatedType}, handled.seen)
}

func TestBus_HandlerTimeout(t *testing.T) {
	bus := NewBus(zap.NewNop())
	bus.SetHandlerTimeout(20 * time.Millisecond)
	var handlerErr error
	bus.Register(NewHandlerFunc("slow", nil, func(ctx context.Context, _ Event) error {
		<-ctx.Done()
		handlerErr = ctx.Err()
		return handlerErr
	}))

	start := time.Now()
	bus.Publish(context.Background(), NewTeamCreatedEvent(uuid.New(), "evt-1", "Alpha", "21CS00001", time.Now()))
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, handlerErr, context.DeadlineExceeded)
}

func TestInvitationEventRecipients(t *testing.T) {
	teamID := uuid.New()
	sent := NewInvitationEvent(InvitationSentType, teamID, uuid.New(), "21CS00003", "21CS00001", "Alpha", time.Now(), time.Now())
	accepted := NewInvitationEvent(InvitationAcceptedType, teamID, uuid.New(), "21CS00003", "21CS00001", "Alpha", time.Now(), time.Now())

	assert.Equal(t, []string{"21CS00003"}, sent.Recipients())
	assert.Equal(t, []string{"21CS00001"}, accepted.Recipients())
	assert.Equal(t, "Team", sent.AggregateType())
	assert.Equal(t, teamID, sent.AggregateID())
}
