package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/channel-token-service/internal/config"
	"github.com/spec-kit/channel-token-service/internal/domain"
	"github.com/spec-kit/channel-token-service/internal/events"
)

// defaultTTLSeconds is the token lifetime applied when a request carries no
// usable expiry value.
const defaultTTLSeconds int64 = 3600

// Signer produces opaque signed token artifacts. Implementations own the
// wire format and any subject format rules; in particular SignByUID rejects
// uids that do not parse as unsigned 32-bit integers.
type Signer interface {
	SignByUID(cred domain.SigningCredential, channel, uid string, role domain.Role, expiresAt int64) (string, error)
	SignByAccount(cred domain.SigningCredential, channel, account string, role domain.Role, expiresAt int64) (string, error)
	SignMessaging(cred domain.SigningCredential, userID string, role domain.Role, expiresAt int64) (string, error)
}

// TokenService validates issuance requests, computes privilege windows, and
// drives the signer. It holds no mutable state: the signing credential is
// fixed at construction and every method is safe for concurrent use.
type TokenService struct {
	cred       domain.SigningCredential
	signer     Signer
	dispatcher events.Dispatcher
	maxTTL     int64
	now        func() time.Time
}

// NewTokenService builds the service.
func NewTokenService(cfg config.Config, signer Signer, dispatcher events.Dispatcher) *TokenService {
	return &TokenService{
		cred: domain.SigningCredential{
			AppID:          cfg.Credential.AppID,
			AppCertificate: cfg.Credential.AppCertificate,
		},
		signer:     signer,
		dispatcher: dispatcher,
		maxTTL:     int64(cfg.Token.MaxTTLSeconds),
		now:        time.Now,
	}
}

// ComposeMediaToken issues a media channel token using the requested signing
// variant.
func (s *TokenService) ComposeMediaToken(ctx context.Context, req domain.TokenRequest) (*domain.TokenArtifact, error) {
	if err := s.validateMedia(req); err != nil {
		return nil, err
	}

	window := s.computeWindow(req.Expiry)

	var (
		token string
		err   error
	)
	switch req.Variant {
	case domain.VariantUID:
		token, err = s.signer.SignByUID(s.cred, req.Channel, req.Subject, req.Role, window.ExpiresAt)
	case domain.VariantAccount:
		token, err = s.signer.SignByAccount(s.cred, req.Channel, req.Subject, req.Role, window.ExpiresAt)
	}
	if err != nil {
		return nil, fmt.Errorf("sign media token: %w", err)
	}

	s.publishIssued(ctx, domain.KindMedia, req.Subject, req.Channel, window)
	return &domain.TokenArtifact{Token: token, Window: window}, nil
}

// ComposeMessagingToken issues a messaging token. There is no role input on
// this path: every messaging token carries the generic messaging role.
func (s *TokenService) ComposeMessagingToken(ctx context.Context, req domain.TokenRequest) (*domain.TokenArtifact, error) {
	if req.Subject == "" {
		return nil, domain.ErrMissingSubject
	}
	if !s.cred.Configured() {
		return nil, domain.ErrMissingCredential
	}

	window := s.computeWindow(req.Expiry)
	token, err := s.signer.SignMessaging(s.cred, req.Subject, domain.RoleMessagingUser, window.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign messaging token: %w", err)
	}

	s.publishIssued(ctx, domain.KindMessaging, req.Subject, "", window)
	return &domain.TokenArtifact{Token: token, Window: window}, nil
}

// ComposeCombinedToken issues media and messaging tokens for one subject
// over a single privilege window. All validation runs before either signing
// call, so a rejected request never produces a partial bundle. The media
// half always signs by uid.
func (s *TokenService) ComposeCombinedToken(ctx context.Context, req domain.TokenRequest) (*domain.TokenBundle, error) {
	req.Variant = domain.VariantUID
	if err := s.validateMedia(req); err != nil {
		return nil, err
	}

	window := s.computeWindow(req.Expiry)

	rtc, err := s.signer.SignByUID(s.cred, req.Channel, req.Subject, req.Role, window.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign media token: %w", err)
	}
	rtm, err := s.signer.SignMessaging(s.cred, req.Subject, domain.RoleMessagingUser, window.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign messaging token: %w", err)
	}

	s.publishIssued(ctx, domain.KindCombined, req.Subject, req.Channel, window)
	return &domain.TokenBundle{RTCToken: rtc, RTMToken: rtm, Window: window}, nil
}

// validateMedia checks media issuance inputs in a fixed order: channel,
// subject, role, token type, then the credential.
func (s *TokenService) validateMedia(req domain.TokenRequest) error {
	if req.Channel == "" {
		return domain.ErrMissingChannel
	}
	if req.Subject == "" {
		return domain.ErrMissingSubject
	}
	if !req.Role.MediaRole() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRole, req.Role)
	}
	switch req.Variant {
	case domain.VariantUID, domain.VariantAccount:
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidTokenType, req.Variant)
	}
	if !s.cred.Configured() {
		return domain.ErrMissingCredential
	}
	return nil
}

// computeWindow turns the raw expiry request into a privilege window
// anchored at the current time. Empty, non-numeric, and non-positive values
// fall back to the default lifetime; a configured cap clamps the rest.
func (s *TokenService) computeWindow(expiry string) domain.PrivilegeWindow {
	ttl := defaultTTLSeconds
	if parsed, err := strconv.ParseInt(expiry, 10, 64); err == nil && parsed > 0 {
		ttl = parsed
	}
	if s.maxTTL > 0 && ttl > s.maxTTL {
		ttl = s.maxTTL
	}
	issuedAt := s.now().Unix()
	return domain.PrivilegeWindow{IssuedAt: issuedAt, ExpiresAt: issuedAt + ttl}
}

func (s *TokenService) publishIssued(ctx context.Context, kind domain.TokenKind, subject, channel string, window domain.PrivilegeWindow) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTokenIssued,
		Subject:   subject,
		Timestamp: s.now(),
		Payload: events.TokenIssuedPayload{
			Kind:      kind,
			Channel:   channel,
			ExpiresAt: window.ExpiresAt,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
