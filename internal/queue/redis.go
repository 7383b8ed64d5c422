package queue

import (
	"context"
	"fmt"

	"kiosk/catalog/internal/config"
	"kiosk/catalog/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// snapshots kept per stream; older entries are trimmed approximately
const maxStreamLength = 100

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	Close() error
}

// streamClient is the part of *redis.Client the queue uses.
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

type RedisQueue struct {
	redisClient  streamClient
	streamPrefix string
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(ctx context.Context, cfg config.PublishConfig) (Queue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("✅ Connected to Redis successfully")
	return newRedisQueue(rdb, cfg.Stream), nil
}

func newRedisQueue(client streamClient, streamPrefix string) *RedisQueue {
	return &RedisQueue{
		redisClient:  client,
		streamPrefix: streamPrefix,
	}
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	taskType := t.TaskType()
	streamName := task.StreamName(q.streamPrefix, t)

	taskValue, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		MaxLen: maxStreamLength,
		Approx: true,
		Values: map[string]any{
			"task_type": taskType,
			"task_data": string(taskValue),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

func (q *RedisQueue) Close() error {
	if q.redisClient != nil {
		return q.redisClient.Close()
	}
	return nil
}
