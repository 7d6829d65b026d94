package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroadcaster carries invalidated keys over a Redis Pub/Sub channel.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisBroadcaster creates a broadcaster on channel. The client is owned by
// the caller.
func NewRedisBroadcaster(client *redis.Client, channel string, logger zerolog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		logger:  logger.With().Str("component", "RedisBroadcaster").Str("channel", channel).Logger(),
	}
}

// Publish announces that key was invalidated.
func (b *RedisBroadcaster) Publish(ctx context.Context, key string) error {
	if err := b.client.Publish(ctx, b.channel, key).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation of %s: %w", key, err)
	}
	return nil
}

// Listen subscribes to the channel and calls drop for every announced key,
// including this process's own, until ctx ends or the client is closed. It
// returns once the subscription is active.
func (b *RedisBroadcaster) Listen(ctx context.Context, drop func(ctx context.Context, key string) error) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	messages := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if err := drop(ctx, msg.Payload); err != nil {
					b.logger.Error().Err(err).Str("key", msg.Payload).Msg("Failed to drop invalidated key.")
				}
			}
		}
	}()
	b.logger.Debug().Msg("Listening for invalidations.")
	return nil
}
