// Package journal records which runs have already published their update, so
// a re-executed run never posts the same summary twice.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisJournal implements publish dedupe using Redis
type RedisJournal struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisJournal creates a new Redis-backed publish journal
func NewRedisJournal(redisURL string) (*RedisJournal, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisJournalWithClient(client), nil
}

// NewRedisJournalWithClient creates a journal from an existing Redis client
func NewRedisJournalWithClient(client *redis.Client) *RedisJournal {
	return &RedisJournal{
		client: client,
		prefix: "published:",
		ttl:    30 * 24 * time.Hour,
	}
}

func (j *RedisJournal) key(runID string) string {
	return j.prefix + runID
}

// MarkPublished claims the publish slot for runID. It returns true when this
// call was the first to claim it, false when the run already published.
func (j *RedisJournal) MarkPublished(ctx context.Context, runID string) (bool, error) {
	first, err := j.client.SetNX(ctx, j.key(runID), time.Now().UTC().Format(time.RFC3339), j.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark run %s published: %w", runID, err)
	}
	return first, nil
}

// Published reports whether runID already published its update.
func (j *RedisJournal) Published(ctx context.Context, runID string) (bool, error) {
	n, err := j.client.Exists(ctx, j.key(runID)).Result()
	if err != nil {
		return false, fmt.Errorf("check run %s: %w", runID, err)
	}
	return n > 0, nil
}
