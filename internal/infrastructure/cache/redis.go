// Package cache provides the Redis-backed dedup ledger for deployments that
// want the processed-id set shared across hosts.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"TelegramJobAgent/internal/ports"
)

const seedChunk = 500

// RedisLedger keeps processed identifiers in a Redis set.
type RedisLedger struct {
	client *redis.Client
	key    string
}

var _ ports.DedupLedger = (*RedisLedger)(nil)

// NewRedisLedger parses redisURL and verifies connectivity.
func NewRedisLedger(ctx context.Context, redisURL, key string) (*RedisLedger, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisLedger{client: client, key: key}, nil
}

// Seed adds the identifiers in chunks to bound command size.
func (l *RedisLedger) Seed(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += seedChunk {
		end := min(start+seedChunk, len(ids))
		members := make([]interface{}, 0, end-start)
		for _, id := range ids[start:end] {
			if id != "" {
				members = append(members, id)
			}
		}
		if len(members) == 0 {
			continue
		}
		if err := l.client.SAdd(ctx, l.key, members...).Err(); err != nil {
			return fmt.Errorf("seed ledger: %w", err)
		}
	}
	return nil
}

// Contains reports set membership for id.
func (l *RedisLedger) Contains(ctx context.Context, id string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, l.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return ok, nil
}

// Record marks id as processed.
func (l *RedisLedger) Record(ctx context.Context, id string) error {
	if err := l.client.SAdd(ctx, l.key, id).Err(); err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}

// Close releases the client.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}
