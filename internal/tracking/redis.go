package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"luxdrive/internal/models"
)

const (
	keyPrefix = "luxdrive:positions:"
	trailTTL  = 7 * 24 * time.Hour
)

// RedisStore keeps each trail in a capped Redis list, newest fix at the head.
type RedisStore struct {
	client  *redis.Client
	history int
}

// RedisConfig contains options for creating a new RedisStore.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	History  int
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	history := cfg.History
	if history <= 0 {
		history = 1
	}
	return &RedisStore{client: rdb, history: history}, nil
}

func trailKey(code string) string { return keyPrefix + code }

func (s *RedisStore) Record(ctx context.Context, fix models.PositionFix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("failed to encode position fix: %w", err)
	}
	key := trailKey(fix.TrackingCode)

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(s.history-1))
	pipe.Expire(ctx, key, trailTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record position for '%s': %w", fix.TrackingCode, err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, code string, limit int) ([]models.PositionFix, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := s.client.LRange(ctx, trailKey(code), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read positions for '%s': %w", code, err)
	}
	fixes := make([]models.PositionFix, 0, len(raw))
	for _, item := range raw {
		var fix models.PositionFix
		if err := json.Unmarshal([]byte(item), &fix); err != nil {
			return nil, fmt.Errorf("failed to decode position for '%s': %w", code, err)
		}
		fixes = append(fixes, fix)
	}
	return fixes, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
