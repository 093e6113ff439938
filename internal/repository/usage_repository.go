package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/channel-token-service/internal/domain"
)

// UsageRepository defines persistence access for per-day issuance counters.
type UsageRepository interface {
	IncrementDaily(ctx context.Context, subject string, day time.Time) error
	Window(ctx context.Context, subject string, since time.Time, days int) ([]domain.UsageRecord, error)
}

type usageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository returns a Postgres-backed implementation.
func NewUsageRepository(pool *pgxpool.Pool) UsageRepository {
	return &usageRepository{pool: pool}
}

func (r *usageRepository) IncrementDaily(ctx context.Context, subject string, day time.Time) error {
	const query = `
        INSERT INTO usage_daily (subject, day, tokens)
        VALUES ($1, $2, 1)
        ON CONFLICT (subject, day)
        DO UPDATE SET tokens = usage_daily.tokens + 1, updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, subject, day)
	return err
}

func (r *usageRepository) Window(ctx context.Context, subject string, since time.Time, days int) ([]domain.UsageRecord, error) {
	const query = `
        SELECT subject, day, tokens
        FROM usage_daily
        WHERE subject = $1 AND day >= $2
        ORDER BY day DESC
        LIMIT $3`

	rows, err := r.pool.Query(ctx, query, subject, since, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.UsageRecord
	for rows.Next() {
		var rec domain.UsageRecord
		if err := rows.Scan(&rec.Subject, &rec.Day, &rec.Tokens); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
