package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStagingStore persists pending registrations in Redis so a staged
// registration survives process restarts, the way the original staging slot
// survived page reloads.
type RedisStagingStore struct {
	client *redis.Client
}

func NewRedisStagingStore(client *redis.Client) *RedisStagingStore {
	return &RedisStagingStore{client: client}
}

func stagingKey(providerUserID string) string {
	return fmt.Sprintf("pending_registration:%s", providerUserID)
}

func (s *RedisStagingStore) Put(ctx context.Context, reg PendingRegistration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to encode pending registration: %w", err)
	}

	// No TTL: staged data lives until commit consumes it or it is discarded.
	if err := s.client.Set(ctx, stagingKey(reg.ProviderUserID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to stage registration: %w", err)
	}

	return nil
}

func (s *RedisStagingStore) Get(ctx context.Context, providerUserID string) (PendingRegistration, error) {
	payload, err := s.client.Get(ctx, stagingKey(providerUserID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingRegistration{}, ErrNoPendingRegistration
	}
	if err != nil {
		return PendingRegistration{}, fmt.Errorf("failed to read staged registration: %w", err)
	}

	var reg PendingRegistration
	if err := json.Unmarshal(payload, &reg); err != nil {
		return PendingRegistration{}, fmt.Errorf("failed to decode staged registration: %w", err)
	}

	return reg, nil
}

func (s *RedisStagingStore) Remove(ctx context.Context, providerUserID string) error {
	deleted, err := s.client.Del(ctx, stagingKey(providerUserID)).Result()
	if err != nil {
		return fmt.Errorf("failed to clear staged registration: %w", err)
	}
	if deleted == 0 {
		return ErrNoPendingRegistration
	}
	return nil
}
