package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fluentia/exam-engine/internal/config"
	"github.com/fluentia/exam-engine/internal/model"
)

// RedisResultQueue hands finished attempt records to the persistence worker
// over a Redis list. Implements engine.ResultQueue.
type RedisResultQueue struct {
	rdb *redis.Client
}

// NewRedisResultQueue creates a RedisResultQueue.
func NewRedisResultQueue(rdb *redis.Client) *RedisResultQueue {
	return &RedisResultQueue{rdb: rdb}
}

// Enqueue pushes an attempt record onto the persistence queue.
func (q *RedisResultQueue) Enqueue(ctx context.Context, rec *model.AttemptRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode attempt record: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue attempt record: %w", err)
	}
	return nil
}
