package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/coursegate/coursegate/entitlement"
)

// DefaultChannel is the Redis pub/sub channel entitlement changes travel on.
const DefaultChannel = "coursegate:entitlements"

// RedisBroadcaster propagates entitlement changes across instances via
// Redis pub/sub. Each instance publishes grants to the shared channel and
// feeds received messages into its local hub.
//
// The publishing instance receives its own message back, so a grant can be
// delivered to a local subscriber twice. The watch contract is
// at-least-once and the entitlement is monotonic, so this is harmless.
type RedisBroadcaster struct {
	client  *redis.Client
	hub     *Hub
	channel string
	logger  *slog.Logger
	pubsub  *redis.PubSub
}

// RedisOption configures a RedisBroadcaster.
type RedisOption func(*RedisBroadcaster)

// WithChannel overrides the pub/sub channel name.
func WithChannel(channel string) RedisOption {
	return func(b *RedisBroadcaster) { b.channel = channel }
}

// WithRedisLogger sets the logger.
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(b *RedisBroadcaster) { b.logger = logger }
}

// NewRedisBroadcaster creates a broadcaster on top of an existing client.
func NewRedisBroadcaster(client *redis.Client, hub *Hub, opts ...RedisOption) *RedisBroadcaster {
	b := &RedisBroadcaster{
		client:  client,
		hub:     hub,
		channel: DefaultChannel,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start subscribes to the shared channel and pumps received changes into
// the local hub until ctx is canceled or Close is called.
func (b *RedisBroadcaster) Start(ctx context.Context) error {
	b.pubsub = b.client.Subscribe(ctx, b.channel)

	// Force the subscription to be established before returning so a grant
	// published right after Start is not missed.
	if _, err := b.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("watch: redis subscribe %s: %w", b.channel, err)
	}

	go b.pump(ctx)

	b.logger.Info("redis broadcaster started", "channel", b.channel)
	return nil
}

func (b *RedisBroadcaster) pump(ctx context.Context) {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var change entitlement.Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				b.logger.Warn("dropping undecodable broadcast",
					"channel", b.channel,
					"error", err,
				)
				continue
			}
			b.hub.Publish(change)
		}
	}
}

// Publish sends a change to the shared channel.
func (b *RedisBroadcaster) Publish(ctx context.Context, change entitlement.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("watch: encode change: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("watch: redis publish: %w", err)
	}
	return nil
}

// Close stops the pub/sub subscription.
func (b *RedisBroadcaster) Close() error {
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
