package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "loan-events:"

// RedisBridge relays events between API instances: Deliver publishes to
// loan-events:<sfd_id>, Run feeds every instance's local Hub from the
// pattern subscription. When the bridge is used, the Hub must not also be
// registered as a direct sink or local subscribers see events twice.
type RedisBridge struct {
	rdb    *redis.Client
	hub    *Hub
	logger *slog.Logger
}

func NewRedisBridge(rdb *redis.Client, hub *Hub, logger *slog.Logger) *RedisBridge {
	return &RedisBridge{rdb: rdb, hub: hub, logger: logger}
}

func (b *RedisBridge) Name() string { return "redis" }

func (b *RedisBridge) Deliver(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal loan event: %w", err)
	}
	return b.rdb.Publish(ctx, redisChannelPrefix+evt.SfdID, payload).Err()
}

// Run blocks until ctx is done. ready, when non-nil, is closed once the
// subscription is confirmed.
func (b *RedisBridge) Run(ctx context.Context, ready chan<- struct{}) error {
	ps := b.rdb.PSubscribe(ctx, redisChannelPrefix+"*")
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	if ready != nil {
		close(ready)
	}
	b.logger.Info("redis event bridge subscribed", "pattern", redisChannelPrefix+"*")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.logger.Warn("dropping malformed loan event", "channel", msg.Channel, "error", err)
				continue
			}
			if evt.SfdID == "" {
				evt.SfdID = strings.TrimPrefix(msg.Channel, redisChannelPrefix)
			}
			_ = b.hub.Deliver(ctx, evt)
		}
	}
}
