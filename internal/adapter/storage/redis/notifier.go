package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"invest-backoffice/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// Notifier implements ports.Notifier by publishing transition events on a
// per-user Redis channel. The user-facing notification service subscribes to
// these channels; delivery beyond the publish is its problem, not ours.
type Notifier struct {
	client *goredis.Client
	prefix string
}

// NewNotifier creates a new Redis-backed transition notifier.
func NewNotifier(client *goredis.Client) *Notifier {
	return &Notifier{
		client: client,
		prefix: "notifications:user:",
	}
}

// Channel returns the pub/sub channel name for a user.
func (n *Notifier) Channel(userID string) string {
	return n.prefix + userID
}

// Notify publishes one event describing a committed transition. Callers treat
// any error as best-effort: logged, never propagated into the transition.
func (n *Notifier) Notify(ctx context.Context, event ports.TransitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}
	if err := n.client.Publish(ctx, n.Channel(event.UserID.String()), payload).Err(); err != nil {
		return fmt.Errorf("publish transition event: %w", err)
	}
	return nil
}
