// Package notifications publishes reputation ledger events over Redis pub/sub
// so other platform services can react to demotions, evictions and bans.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "ledger:user:"
	// ModerationChannel carries bans for every user.
	ModerationChannel = "ledger:moderation"
)

// Event is one committed ledger change.
type Event struct {
	// Type is created, demoted or banned.
	Type            string    `json:"type"`
	UserID          uint      `json:"user_id"`
	ExpertiseAreaID uint      `json:"expertise_area_id,omitempty"`
	FameLevel       string    `json:"fame_level,omitempty"`
	Evicted         bool      `json:"evicted,omitempty"`
	At              time.Time `json:"at"`
}

// Notifier provides helpers to publish ledger events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Publish sends ev to the user's channel, and bans also to ModerationChannel.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.rdb.Publish(ctx, UserChannel(ev.UserID), payload).Err(); err != nil {
		return err
	}
	if ev.Type == "banned" {
		return n.rdb.Publish(ctx, ModerationChannel, payload).Err()
	}
	return nil
}

// StartSubscriber subscribes to every user channel and the moderation
// channel and calls onEvent for each message until ctx is done. It returns
// once the subscription is confirmed.
func (n *Notifier) StartSubscriber(ctx context.Context, onEvent func(channel string, ev Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	patterns := []string{userChannelPrefix + "*", ModerationChannel}
	sub := n.rdb.PSubscribe(ctx, patterns...)
	for range patterns {
		if _, err := sub.Receive(ctx); err != nil {
			_ = sub.Close()
			return fmt.Errorf("subscribe ledger events: %w", err)
		}
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
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("dropping malformed ledger event", slog.String("channel", msg.Channel), slog.Any("error", err))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in ledger event subscriber", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(msg.Channel, ev)
				}()
			}
		}
	}()

	return nil
}
