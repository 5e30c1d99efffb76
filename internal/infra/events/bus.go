package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHandlerTimeout = 2 * time.Second
	defaultQueueSize      = 1024
)

// Bus dispatches domain events to registered handlers.
// Handler failures are logged and never reach the publisher.
//
// A new Bus delivers synchronously inside Publish. After Start, Publish only
// enqueues and a single worker delivers events in publish order; Close drains
// the queue and returns the bus to synchronous delivery.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wildcard []Handler
	timeout  time.Duration
	logger   *zap.Logger

	qmu   sync.RWMutex
	queue chan envelope
	done  chan struct{}
}

type envelope struct {
	ctx   context.Context
	event Event
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		timeout:  defaultHandlerTimeout,
		logger:   logger,
	}
}

// SetHandlerTimeout bounds how long a single handler may run. Call it before Start.
func (b *Bus) SetHandlerTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

// Register registers a handler for the events it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	types := handler.Handles()
	if len(types) == 0 {
		b.wildcard = append(b.wildcard, handler)
		b.logger.Debug("registered event handler", zap.String("handler", handler.Name()), zap.String("event_type", "*"))
		return
	}
	for _, eventType := range types {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
		b.logger.Debug("registered event handler",
			zap.String("handler", handler.Name()),
			zap.String("event_type", eventType),
		)
	}
}

// Start switches the bus to background delivery with a queue of size events.
// Calling Start on a started bus does nothing.
func (b *Bus) Start(size int) {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	if b.queue != nil {
		return
	}
	if size <= 0 {
		size = defaultQueueSize
	}
	b.queue = make(chan envelope, size)
	b.done = make(chan struct{})
	go b.run(b.queue, b.done)
}

func (b *Bus) run(queue <-chan envelope, done chan<- struct{}) {
	defer close(done)
	for env := range queue {
		b.deliver(env.ctx, env.event)
	}
}

// Close stops background delivery and waits until queued events are
// delivered or ctx ends. Events published afterwards are delivered inline.
func (b *Bus) Close(ctx context.Context) error {
	b.qmu.Lock()
	queue, done := b.queue, b.done
	b.queue, b.done = nil, nil
	b.qmu.Unlock()

	if queue == nil {
		return nil
	}
	close(queue)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain event queue: %w", ctx.Err())
	}
}

// Publish hands an event to the registered handlers. The caller's cancellation
// does not abort delivery; each handler gets its own timeout. A started bus
// with a full queue drops the event.
func (b *Bus) Publish(ctx context.Context, event Event) {
	ctx = context.WithoutCancel(ctx)

	b.qmu.RLock()
	if b.queue != nil {
		select {
		case b.queue <- envelope{ctx: ctx, event: event}:
		default:
			b.logger.Warn("event queue full, dropping event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
			)
		}
		b.qmu.RUnlock()
		return
	}
	b.qmu.RUnlock()

	b.deliver(ctx, event)
}

// deliver runs every matching handler in registration order.
func (b *Bus) deliver(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.EventType()])+len(b.wildcard))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers registered for event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return
	}

	b.logger.Debug("publishing event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("team_id", event.AggregateID().String()),
		zap.Int("handler_count", len(handlers)),
	)

	for _, handler := range handlers {
		if err := b.dispatch(ctx, handler, event); err != nil {
			b.logger.Warn("event handler failed",
				zap.String("handler", handler.Name()),
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, handler Handler, event Event) (err error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}
