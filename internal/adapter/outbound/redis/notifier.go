package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventsync/server/internal/infra/events"
)

// StreamNotifier forwards every collaboration event to a Redis stream where
// notification workers consume it.
type StreamNotifier struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewStreamNotifier creates a notifier writing to stream. A positive maxLen
// trims the stream approximately to that length.
func NewStreamNotifier(client redis.UniversalClient, stream string, maxLen int64) *StreamNotifier {
	return &StreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

// Name returns the handler name.
func (n *StreamNotifier) Name() string {
	return "redis-stream-notifier"
}

// Handles subscribes to every event.
func (n *StreamNotifier) Handles() []string {
	return nil
}

// Handle appends the event to the stream.
func (n *StreamNotifier) Handle(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}

	args := &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"event_id":    event.EventID().String(),
			"type":        event.EventType(),
			"team_id":     event.AggregateID().String(),
			"recipients":  strings.Join(event.Recipients(), ","),
			"occurred_at": event.OccurredAt().UTC().Format(time.RFC3339Nano),
			"payload":     string(payload),
		},
	}
	if n.maxLen > 0 {
		args.MaxLen = n.maxLen
		args.Approx = true
	}

	if err := n.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", n.stream, err)
	}
	return nil
}

var _ events.Handler = (*StreamNotifier)(nil)
