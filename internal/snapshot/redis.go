package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/fluentia/exam-engine/internal/config"
	"github.com/fluentia/exam-engine/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots in Redis, one JSON value per key.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, snap *model.Snapshot) error {
	raw, err := Encode(snap)
	if err != nil {
		return err
	}

	key := config.CacheKey.AttemptSnapshotKey(snap.Namespace, snap.ExamID.String())
	if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, namespace string, examID uuid.UUID) (*model.Snapshot, error) {
	key := config.CacheKey.AttemptSnapshotKey(namespace, examID.String())

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return Decode(raw)
}

func (s *RedisStore) Delete(ctx context.Context, namespace string, examID uuid.UUID) error {
	key := config.CacheKey.AttemptSnapshotKey(namespace, examID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
