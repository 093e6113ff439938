package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/channel-token-service/internal/config"
	"github.com/spec-kit/channel-token-service/internal/domain"
	"github.com/spec-kit/channel-token-service/internal/events"
	"github.com/spec-kit/channel-token-service/internal/observability"
	"github.com/spec-kit/channel-token-service/internal/repository"
)

// defaultWindowDays is the usage span served when the caller does not ask
// for one.
const defaultWindowDays = 7

// UsageService records per-subject daily issuance counts and serves bounded
// window reads. Recording rides the token-issued event, so a failed write
// never fails the issuance that triggered it.
type UsageService struct {
	repo       repository.UsageRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	maxDays    int
	now        func() time.Time
}

// NewUsageService creates the service.
func NewUsageService(cfg config.Config, repo repository.UsageRepository, dispatcher events.Dispatcher, metrics *observability.Metrics) *UsageService {
	maxDays := cfg.Usage.WindowMaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	return &UsageService{
		repo:       repo,
		dispatcher: dispatcher,
		metrics:    metrics,
		maxDays:    maxDays,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes to events.
func (s *UsageService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTokenIssued, s.handleTokenIssued)
}

func (s *UsageService) handleTokenIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TokenIssuedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}
	s.metrics.RecordTokenIssued(string(payload.Kind))

	if err := s.repo.IncrementDaily(ctx, event.Subject, domain.DayOf(event.Timestamp)); err != nil {
		return fmt.Errorf("increment usage for %s: %w", event.Subject, err)
	}
	return nil
}

// Window returns per-day counters for the subject covering the most recent
// days, newest first. Non-positive spans use the default; spans beyond the
// configured maximum are clamped.
func (s *UsageService) Window(ctx context.Context, subject string, days int) ([]domain.UsageRecord, error) {
	if subject == "" {
		return nil, domain.ErrMissingSubject
	}
	if days <= 0 {
		days = defaultWindowDays
	}
	if days > s.maxDays {
		days = s.maxDays
	}

	since := domain.DayOf(s.now()).AddDate(0, 0, -(days - 1))
	return s.repo.Window(ctx, subject, since, days)
}
