package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Change is a record-level change notification published after a store
// mutation. Subscribers (the SSE feed) use it to trigger a re-read; the
// payload deliberately carries no record body.
type Change struct {
	Table      string    `json:"table"`
	Action     string    `json:"action"` // insert, update, delete
	RecordID   uuid.UUID `json:"record_id"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Bus publishes and subscribes to change notifications over Redis pub/sub,
// scoped per user so a subscriber only sees its own records change.
type Bus struct {
	client *redis.Client
}

// NewBus creates a change bus over the given Redis client
func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client}
}

func channelFor(userID uuid.UUID) string {
	return "changes:" + userID.String()
}

// Publish emits a change notification for the given user's feed.
// Publish failures are returned but callers treat delivery as best-effort;
// a missed notification only delays a UI refetch.
func (b *Bus) Publish(ctx context.Context, change Change) error {
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	if err := b.client.Publish(ctx, channelFor(change.UserID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}

	return nil
}

// Subscribe returns a channel of changes for one user. The channel is closed
// when ctx is cancelled. Malformed payloads are dropped.
func (b *Bus) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Change, error) {
	sub := b.client.Subscribe(ctx, channelFor(userID))

	// Confirm the subscription before handing back the channel
	if _, err := sub.Receive(ctx); err != nil {
		if closeErr := sub.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Close(); err != nil {
				_ = err
			}
		}()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- change:
				}
			}
		}
	}()

	return out, nil
}
