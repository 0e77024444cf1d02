package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSource reads the published version from a Redis key and follows
// changes announced on a pub/sub channel.
type RedisSource struct {
	client  *redis.Client
	key     string
	channel string
}

func NewRedisSource(client *redis.Client, key, channel string) *RedisSource {
	return &RedisSource{
		client:  client,
		key:     key,
		channel: channel,
	}
}

func (s *RedisSource) Current(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read published version: %w", err)
	}
	return value, nil
}

func (s *RedisSource) Watch(ctx context.Context, fn func(version string)) (func(), error) {
	pubsub := s.client.Subscribe(ctx, s.channel)

	// Force the subscription to be established before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to version channel: %w", err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			fn(msg.Payload)
		}
	}()

	return func() { pubsub.Close() }, nil
}
