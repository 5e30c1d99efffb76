package events

import "context"

// Handler is the interface for event handlers.
type Handler interface {
	// Name identifies the handler in logs and metrics.
	Name() string

	// Handles returns the list of event types this handler can process.
	// An empty list subscribes to every event.
	Handles() []string

	// Handle processes the given event.
	// Delivery is at-most-once; a failed event is logged and dropped.
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	name       string
	eventTypes []string
	fn         func(context.Context, Event) error
}

// NewHandlerFunc creates a new HandlerFunc.
func NewHandlerFunc(name string, eventTypes []string, fn func(context.Context, Event) error) *HandlerFunc {
	return &HandlerFunc{
		name:       name,
		eventTypes: eventTypes,
		fn:         fn,
	}
}

// Name returns the handler name.
func (h *HandlerFunc) Name() string {
	return h.name
}

// Handles returns the list of event types this handler can process.
func (h *HandlerFunc) Handles() []string {
	return h.eventTypes
}

// Handle processes the given event.
func (h *HandlerFunc) Handle(ctx context.Context, event Event) error {
	return h.fn(ctx, event)
}
