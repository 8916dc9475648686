// internal/journal/redis.go

// Package journal pushes broadcast room events onto a Redis list so an
// external consumer (analytics, replay tooling) can drain them. The journal
// is optional and strictly best-effort: a missing or slow Redis never blocks
// or fails a room mutation.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list events are pushed to, overridable with
// JOURNAL_QUEUE_NAME.
const DefaultQueueName = "quizroom_events"

// EventRecord is the wire form of one journaled event.
type EventRecord struct {
	RoomCode  string      `json:"roomCode"`
	EventType string      `json:"eventType"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Journal wraps a Redis client and a destination queue.
type Journal struct {
	rdb   *redis.Client
	queue string
	log   *logrus.Logger
}

// Connect dials Redis at addr and verifies the connection with a ping.
func Connect(addr string, log *logrus.Logger) (*Journal, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("journal: connect to redis at %s: %w", addr, err)
	}

	queue := os.Getenv("JOURNAL_QUEUE_NAME")
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Journal{rdb: rdb, queue: queue, log: log}, nil
}

// Publish serializes the record and RPushes it. Errors are logged, never
// returned to the mutation path.
func (j *Journal) Publish(record EventRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		j.log.WithError(err).Warn("journal: marshal event failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		j.log.WithError(err).Warn("journal: rpush failed")
	}
}

// Close releases the underlying client.
func (j *Journal) Close() error { return j.rdb.Close() }
