// Package notifications publishes activity log entries to Redis subscribers.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"docfeed/internal/middleware"
	"docfeed/internal/models"

	"github.com/redis/go-redis/v9"
)

// ActivityChannel is the Redis channel every recorded activity is broadcast on.
const ActivityChannel = "activities:broadcast"

// Notifier provides helpers to publish activities into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishActivity sends the JSON encoded activity to ActivityChannel.
func (n *Notifier) PublishActivity(ctx context.Context, activity *models.Activity) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}
	return n.rdb.Publish(ctx, ActivityChannel, payload).Err()
}

// SubscribeActivities calls onActivity for every activity published until ctx is done.
// Undecodable payloads are logged and skipped.
func (n *Notifier) SubscribeActivities(ctx context.Context, onActivity func(models.Activity)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, ActivityChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", ActivityChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var activity models.Activity
				if err := json.Unmarshal([]byte(msg.Payload), &activity); err != nil {
					middleware.Logger.Warn("dropping malformed activity payload", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in activity subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onActivity(activity)
				}()
			}
		}
	}()

	return nil
}
