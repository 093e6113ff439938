package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/channel-token-service/internal/domain"
)

const usageKeyDayFormat = "2006-01-02"

type redisUsageRepository struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisUsageRepository returns a Redis-backed implementation. Counter keys
// carry a retention TTL so the keyspace stays bounded.
func NewRedisUsageRepository(client *redis.Client, retention time.Duration) UsageRepository {
	return &redisUsageRepository{client: client, retention: retention}
}

func usageKey(subject string, day time.Time) string {
	return "usage:" + subject + ":" + day.Format(usageKeyDayFormat)
}

func (r *redisUsageRepository) IncrementDaily(ctx context.Context, subject string, day time.Time) error {
	key := usageKey(subject, day)
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, key)
	if r.retention > 0 {
		pipe.Expire(ctx, key, r.retention)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisUsageRepository) Window(ctx context.Context, subject string, since time.Time, days int) ([]domain.UsageRecord, error) {
	if days <= 0 {
		return nil, nil
	}

	// Most recent day first, matching the Postgres ORDER BY day DESC.
	keys := make([]string, 0, days)
	stamps := make([]time.Time, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := since.AddDate(0, 0, i)
		keys = append(keys, usageKey(subject, day))
		stamps = append(stamps, day)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var records []domain.UsageRecord
	for i, raw := range values {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		tokens, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		records = append(records, domain.UsageRecord{Subject: subject, Day: stamps[i], Tokens: tokens})
	}
	return records, nil
}
