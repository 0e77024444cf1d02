package identity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps the session registry in Redis; TTLs expire
// abandoned sessions without a cleanup job.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(tokenHash string) string {
	return fmt.Sprintf("session:%s", tokenHash)
}

func (s *RedisSessionStore) Put(ctx context.Context, tokenHash string, record SessionRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	key := sessionKey(tokenHash)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":    record.UserID,
		"email":      record.Email,
		"issued_at":  record.IssuedAt.Unix(),
		"expires_at": record.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, tokenHash string) (SessionRecord, error) {
	data, err := s.client.HGetAll(ctx, sessionKey(tokenHash)).Result()
	if err != nil {
		return SessionRecord{}, fmt.Errorf("failed to get session: %w", err)
	}
	if len(data) == 0 {
		return SessionRecord{}, ErrSessionNotFound
	}

	issuedAt, _ := strconv.ParseInt(data["issued_at"], 10, 64)
	expiresAt, _ := strconv.ParseInt(data["expires_at"], 10, 64)

	return SessionRecord{
		UserID:    data["user_id"],
		Email:     data["email"],
		IssuedAt:  time.Unix(issuedAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, tokenHash string) error {
	deleted, err := s.client.Del(ctx, sessionKey(tokenHash)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if deleted == 0 {
		return ErrSessionNotFound
	}
	return nil
}
