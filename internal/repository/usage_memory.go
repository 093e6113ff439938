package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/channel-token-service/internal/domain"
)

type memoryUsageRepository struct {
	mu       sync.Mutex
	counters map[string]map[int64]int64
}

// NewMemoryUsageRepository returns a process-local implementation used when
// neither Postgres nor Redis is configured. Counters vanish on restart.
func NewMemoryUsageRepository() UsageRepository {
	return &memoryUsageRepository{counters: make(map[string]map[int64]int64)}
}

func (r *memoryUsageRepository) IncrementDaily(_ context.Context, subject string, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDay := r.counters[subject]
	if byDay == nil {
		byDay = make(map[int64]int64)
		r.counters[subject] = byDay
	}
	byDay[day.Unix()]++
	return nil
}

func (r *memoryUsageRepository) Window(_ context.Context, subject string, since time.Time, days int) ([]domain.UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDay := r.counters[subject]
	var records []domain.UsageRecord
	for i := days - 1; i >= 0; i-- {
		day := since.AddDate(0, 0, i)
		if tokens, ok := byDay[day.Unix()]; ok {
			records = append(records, domain.UsageRecord{Subject: subject, Day: day, Tokens: tokens})
		}
	}
	return records, nil
}
