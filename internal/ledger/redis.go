package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisPrefix = "recipe_generation_logs"
	// DefaultRedisRetention bounds how long members stay in a user's set.
	DefaultRedisRetention = 24 * time.Hour
)

// RedisStore keeps one sorted set per user scored by request time in unix ms.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisStore creates a store; retention below Window is raised to Window.
func NewRedisStore(client redis.UniversalClient, retention time.Duration) *RedisStore {
	if retention < Window {
		retention = Window
	}
	return &RedisStore{client: client, prefix: DefaultRedisPrefix, retention: retention}
}

// RetentionDuration converts a retention in days for NewRedisStore. Zero or
// less keeps DefaultRedisRetention.
func RetentionDuration(days int) time.Duration {
	if days <= 0 {
		return DefaultRedisRetention
	}
	return time.Duration(days) * 24 * time.Hour
}

type redisMember struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	Provider        string  `json:"provider"`
	IngredientCount int     `json:"ingredient_count"`
	ErrorCode       *string `json:"error_code"`
	LatencyMs       *int64  `json:"latency_ms"`
	RequestedAt     string  `json:"requested_at"`
}

func (s *RedisStore) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	count, err := s.client.ZCount(ctx, s.key(userID), strconv.FormatInt(since.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUsageCountFailed, err)
	}
	return count, nil
}

// Insert adds the entry and prunes members older than the retention.
func (s *RedisStore) Insert(ctx context.Context, entry Entry) error {
	member, err := json.Marshal(redisMember{
		ID:              uuid.NewString(),
		Status:          entry.Status,
		Provider:        entry.Provider,
		IngredientCount: entry.IngredientCount,
		ErrorCode:       entry.ErrorCode,
		LatencyMs:       entry.LatencyMs,
		RequestedAt:     entry.RequestedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	key := s.key(entry.UserID)
	cutoff := entry.RequestedAt.Add(-s.retention).UnixMilli()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(entry.RequestedAt.UnixMilli()), Member: member})
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUsageLogFailed, err)
	}
	return nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + ":" + userID
}
