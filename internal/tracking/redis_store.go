package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"projectpulse/internal/model"
)

const redisKeyPrefix = "tracking:"

// RedisStore keeps tracking records server-side in redis so baselines
// survive restarts and are shared across server instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, projectID string) (*model.TrackingRecord, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+projectID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get tracking record: %w", err)
	}

	var rec model.TrackingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode tracking record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Put(ctx context.Context, record *model.TrackingRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode tracking record: %w", err)
	}
	// Records are never expired: they live for the life of the project.
	if err := s.client.Set(ctx, redisKeyPrefix+record.ProjectID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis put tracking record: %w", err)
	}
	return nil
}
