package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"painel/internal/models"
)

// SnapshotKey is where the current deputy snapshot lives in Redis.
const SnapshotKey = "painel:deputados:v1:snapshot"

// RedisStore shares the snapshot between replicas.
type RedisStore struct {
	rdb    redis.Cmdable
	expiry time.Duration
}

// NewRedisStore creates a store on rdb. Entries expire after expiry (0 keeps them).
func NewRedisStore(rdb redis.Cmdable, expiry time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, expiry: expiry}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (s *RedisStore) Load(ctx context.Context) (*models.DeputySnapshot, error) {
	val, err := s.rdb.Get(ctx, SnapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failure: %w", err)
	}

	var snap models.DeputySnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, snap *models.DeputySnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, SnapshotKey, b, s.expiry).Err(); err != nil {
		return fmt.Errorf("redis set failure: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, SnapshotKey).Err(); err != nil {
		return fmt.Errorf("redis del failure: %w", err)
	}
	return nil
}
