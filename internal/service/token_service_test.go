package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/channel-token-service/internal/config"
	"github.com/spec-kit/channel-token-service/internal/domain"
	"github.com/spec-kit/channel-token-service/internal/events"
)

var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

type signerCall struct {
	entry     string
	channel   string
	subject   string
	role      domain.Role
	expiresAt int64
}

// fakeSigner records every invocation and can be told to fail a single
// entry point.
type fakeSigner struct {
	calls  []signerCall
	failOn string
	err    error
}

func (f *fakeSigner) sign(entry, channel, subject string, role domain.Role, expiresAt int64) (string, error) {
	f.calls = append(f.calls, signerCall{entry, channel, subject, role, expiresAt})
	if f.failOn == entry {
		return "", f.err
	}
	return entry + "-token", nil
}

func (f *fakeSigner) SignByUID(_ domain.SigningCredential, channel, uid string, role domain.Role, expiresAt int64) (string, error) {
	return f.sign("uid", channel, uid, role, expiresAt)
}

func (f *fakeSigner) SignByAccount(_ domain.SigningCredential, channel, account string, role domain.Role, expiresAt int64) (string, error) {
	return f.sign("account", channel, account, role, expiresAt)
}

func (f *fakeSigner) SignMessaging(_ domain.SigningCredential, userID string, role domain.Role, expiresAt int64) (string, error) {
	return f.sign("messaging", "", userID, role, expiresAt)
}

func newTestService(signer Signer, maxTTL int) *TokenService {
	cfg := config.Config{
		Credential: config.CredentialConfig{AppID: "app-id", AppCertificate: "app-cert"},
		Token:      config.TokenConfig{MaxTTLSeconds: maxTTL},
	}
	s := NewTokenService(cfg, signer, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func TestComposeMediaToken_UIDVariant(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher, Variant: domain.VariantUID}
	artifact, err := s.ComposeMediaToken(context.Background(), req)
	if err != nil {
		t.Fatalf("ComposeMediaToken: %v", err)
	}

	if artifact.Token != "uid-token" {
		t.Errorf("token = %q, want %q", artifact.Token, "uid-token")
	}
	wantExpiry := testNow.Unix() + 3600
	if artifact.Window.ExpiresAt != wantExpiry {
		t.Errorf("expiresAt = %d, want %d (default lifetime)", artifact.Window.ExpiresAt, wantExpiry)
	}
	if artifact.Window.IssuedAt != testNow.Unix() {
		t.Errorf("issuedAt = %d, want %d", artifact.Window.IssuedAt, testNow.Unix())
	}

	if len(signer.calls) != 1 {
		t.Fatalf("signer calls = %d, want 1", len(signer.calls))
	}
	call := signer.calls[0]
	if call.entry != "uid" {
		t.Errorf("signer entry = %q, want uid", call.entry)
	}
	if call.channel != "room1" || call.subject != "42" || call.role != domain.RolePublisher {
		t.Errorf("signer received %+v, want channel room1, subject 42, role PUBLISHER", call)
	}
	if call.expiresAt != wantExpiry {
		t.Errorf("signer expiresAt = %d, want %d", call.expiresAt, wantExpiry)
	}
}

func TestComposeMediaToken_AccountVariant(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	req := domain.TokenRequest{Channel: "room1", Subject: "alice", Role: domain.RoleSubscriber, Variant: domain.VariantAccount, Expiry: "600"}
	artifact, err := s.ComposeMediaToken(context.Background(), req)
	if err != nil {
		t.Fatalf("ComposeMediaToken: %v", err)
	}

	if want := testNow.Unix() + 600; artifact.Window.ExpiresAt != want {
		t.Errorf("expiresAt = %d, want %d (exact requested ttl)", artifact.Window.ExpiresAt, want)
	}
	if len(signer.calls) != 1 || signer.calls[0].entry != "account" {
		t.Fatalf("signer calls = %+v, want exactly one account-entry call", signer.calls)
	}
	if signer.calls[0].role != domain.RoleSubscriber {
		t.Errorf("signer role = %q, want SUBSCRIBER", signer.calls[0].role)
	}
}

func TestComposeMediaToken_InvalidRole(t *testing.T) {
	for _, role := range []domain.Role{"", "MODERATOR", domain.RoleMessagingUser} {
		signer := &fakeSigner{}
		s := newTestService(signer, 0)

		req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: role, Variant: domain.VariantUID}
		if _, err := s.ComposeMediaToken(context.Background(), req); !errors.Is(err, domain.ErrInvalidRole) {
			t.Errorf("role %q: err = %v, want ErrInvalidRole", role, err)
		}
		if len(signer.calls) != 0 {
			t.Errorf("role %q: signer invoked %d times after validation failure", role, len(signer.calls))
		}
	}
}

func TestComposeMediaToken_MissingChannel(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	req := domain.TokenRequest{Channel: "", Subject: "42", Role: domain.RolePublisher, Variant: domain.VariantUID}
	if _, err := s.ComposeMediaToken(context.Background(), req); !errors.Is(err, domain.ErrMissingChannel) {
		t.Errorf("err = %v, want ErrMissingChannel", err)
	}
	if len(signer.calls) != 0 {
		t.Errorf("signer invoked %d times, want 0", len(signer.calls))
	}
}

func TestComposeMediaToken_MissingSubject(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	req := domain.TokenRequest{Channel: "room1", Role: domain.RolePublisher, Variant: domain.VariantUID}
	if _, err := s.ComposeMediaToken(context.Background(), req); !errors.Is(err, domain.ErrMissingSubject) {
		t.Errorf("err = %v, want ErrMissingSubject", err)
	}
}

func TestComposeMediaToken_InvalidVariant(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher, Variant: ""}
	if _, err := s.ComposeMediaToken(context.Background(), req); !errors.Is(err, domain.ErrInvalidTokenType) {
		t.Errorf("err = %v, want ErrInvalidTokenType", err)
	}
	if len(signer.calls) != 0 {
		t.Errorf("signer invoked %d times, want 0", len(signer.calls))
	}
}

func TestComposeMediaToken_DefaultTTLFallbacks(t *testing.T) {
	for _, expiry := range []string{"", "abc", "12.5", "0", "-5"} {
		signer := &fakeSigner{}
		s := newTestService(signer, 0)

		req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher, Variant: domain.VariantUID, Expiry: expiry}
		artifact, err := s.ComposeMediaToken(context.Background(), req)
		if err != nil {
			t.Fatalf("expiry %q: ComposeMediaToken: %v", expiry, err)
		}
		if want := testNow.Unix() + 3600; artifact.Window.ExpiresAt != want {
			t.Errorf("expiry %q: expiresAt = %d, want %d", expiry, artifact.Window.ExpiresAt, want)
		}
	}
}

func TestComposeMediaToken_UnboundedTTLByDefault(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher, Variant: domain.VariantUID, Expiry: "31536000"}
	artifact, err := s.ComposeMediaToken(context.Background(), req)
	if err != nil {
		t.Fatalf("ComposeMediaToken: %v", err)
	}
	if want := testNow.Unix() + 31536000; artifact.Window.ExpiresAt != want {
		t.Errorf("expiresAt = %d, want %d (no cap configured)", artifact.Window.ExpiresAt, want)
	}
}

func TestComposeMediaToken_TTLCap(t *testing.T) {
	cases := []struct {
		expiry  string
		wantTTL int64
	}{
		{"86400", 7200},
		{"7200", 7200},
		{"600", 600},
		{"", 3600},
	}
	for _, tc := range cases {
		signer := &fakeSigner{}
		s := newTestService(signer, 7200)

		req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher, Variant: domain.VariantUID, Expiry: tc.expiry}
		artifact, err := s.ComposeMediaToken(context.Background(), req)
		if err != nil {
			t.Fatalf("expiry %q: ComposeMediaToken: %v", tc.expiry, err)
		}
		if want := testNow.Unix() + tc.wantTTL; artifact.Window.ExpiresAt != want {
			t.Errorf("expiry %q: expiresAt = %d, want %d", tc.expiry, artifact.Window.ExpiresAt, want)
		}
	}
}

func TestComposeMediaToken_SignerError(t *testing.T) {
	errSign := errors.New("uid out of range")
	signer := &fakeSigner{failOn: "uid", err: errSign}
	s := newTestService(signer, 0)

	req := domain.TokenRequest{Channel: "room1", Subject: "not-a-uid", Role: domain.RolePublisher, Variant: domain.VariantUID}
	if _, err := s.ComposeMediaToken(context.Background(), req); !errors.Is(err, errSign) {
		t.Errorf("err = %v, want wrapped signer error", err)
	}
}

func TestComposeMessagingToken_Success(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	artifact, err := s.ComposeMessagingToken(context.Background(), domain.TokenRequest{Subject: "u1", Expiry: "120"})
	if err != nil {
		t.Fatalf("ComposeMessagingToken: %v", err)
	}
	if want := testNow.Unix() + 120; artifact.Window.ExpiresAt != want {
		t.Errorf("expiresAt = %d, want %d", artifact.Window.ExpiresAt, want)
	}
	if len(signer.calls) != 1 || signer.calls[0].entry != "messaging" {
		t.Fatalf("signer calls = %+v, want exactly one messaging-entry call", signer.calls)
	}
	if signer.calls[0].role != domain.RoleMessagingUser {
		t.Errorf("signer role = %q, want MESSAGING_USER", signer.calls[0].role)
	}
}

func TestComposeMessagingToken_RoleContentIgnored(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	// Whatever arrives in the role field, messaging issuance neither
	// validates nor forwards it.
	req := domain.TokenRequest{Subject: "u1", Role: "MODERATOR"}
	if _, err := s.ComposeMessagingToken(context.Background(), req); err != nil {
		t.Fatalf("ComposeMessagingToken: %v", err)
	}
	if signer.calls[0].role != domain.RoleMessagingUser {
		t.Errorf("signer role = %q, want MESSAGING_USER regardless of request role", signer.calls[0].role)
	}
}

func TestComposeMessagingToken_MissingSubject(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	if _, err := s.ComposeMessagingToken(context.Background(), domain.TokenRequest{}); !errors.Is(err, domain.ErrMissingSubject) {
		t.Errorf("err = %v, want ErrMissingSubject", err)
	}
	if len(signer.calls) != 0 {
		t.Errorf("signer invoked %d times, want 0", len(signer.calls))
	}
}

func TestComposeCombinedToken_Success(t *testing.T) {
	signer := &fakeSigner{}
	s := newTestService(signer, 0)

	// Variant is ignored on the combined path: the media half signs by uid.
	req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher, Variant: domain.VariantAccount, Expiry: "900"}
	bundle, err := s.ComposeCombinedToken(context.Background(), req)
	if err != nil {
		t.Fatalf("ComposeCombinedToken: %v", err)
	}

	if bundle.RTCToken != "uid-token" || bundle.RTMToken != "messaging-token" {
		t.Errorf("bundle = %+v, want uid-token and messaging-token", bundle)
	}
	if len(signer.calls) != 2 {
		t.Fatalf("signer calls = %d, want 2", len(signer.calls))
	}
	if signer.calls[0].entry != "uid" || signer.calls[1].entry != "messaging" {
		t.Errorf("call order = [%s %s], want [uid messaging]", signer.calls[0].entry, signer.calls[1].entry)
	}
	if signer.calls[0].expiresAt != signer.calls[1].expiresAt {
		t.Errorf("artifacts signed with different windows: %d vs %d", signer.calls[0].expiresAt, signer.calls[1].expiresAt)
	}
	if want := testNow.Unix() + 900; bundle.Window.ExpiresAt != want {
		t.Errorf("expiresAt = %d, want %d", bundle.Window.ExpiresAt, want)
	}
}

func TestComposeCombinedToken_AtomicValidation(t *testing.T) {
	cases := []struct {
		name string
		req  domain.TokenRequest
		want error
	}{
		{"empty subject", domain.TokenRequest{Channel: "room1", Role: domain.RolePublisher}, domain.ErrMissingSubject},
		{"empty channel", domain.TokenRequest{Subject: "42", Role: domain.RolePublisher}, domain.ErrMissingChannel},
		{"invalid role", domain.TokenRequest{Channel: "room1", Subject: "42", Role: "MODERATOR"}, domain.ErrInvalidRole},
	}
	for _, tc := range cases {
		signer := &fakeSigner{}
		s := newTestService(signer, 0)

		bundle, err := s.ComposeCombinedToken(context.Background(), tc.req)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
		if bundle != nil {
			t.Errorf("%s: bundle = %+v, want nil", tc.name, bundle)
		}
		if len(signer.calls) != 0 {
			t.Errorf("%s: signer invoked %d times, want 0", tc.name, len(signer.calls))
		}
	}
}

func TestComposeCombinedToken_NoPartialBundleOnSignerError(t *testing.T) {
	errSign := errors.New("uid out of range")
	signer := &fakeSigner{failOn: "uid", err: errSign}
	s := newTestService(signer, 0)

	req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher}
	bundle, err := s.ComposeCombinedToken(context.Background(), req)
	if !errors.Is(err, errSign) {
		t.Errorf("err = %v, want wrapped signer error", err)
	}
	if bundle != nil {
		t.Errorf("bundle = %+v, want nil", bundle)
	}
	if len(signer.calls) != 1 {
		t.Errorf("signer calls = %d, want 1 (messaging sign must not run)", len(signer.calls))
	}
}

func TestCompose_MissingCredential(t *testing.T) {
	signer := &fakeSigner{}
	s := NewTokenService(config.Config{}, signer, nil)
	s.now = func() time.Time { return testNow }

	media := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher, Variant: domain.VariantUID}
	if _, err := s.ComposeMediaToken(context.Background(), media); !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("media: err = %v, want ErrMissingCredential", err)
	}
	if _, err := s.ComposeMessagingToken(context.Background(), domain.TokenRequest{Subject: "u1"}); !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("messaging: err = %v, want ErrMissingCredential", err)
	}
	combined := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher}
	if _, err := s.ComposeCombinedToken(context.Background(), combined); !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("combined: err = %v, want ErrMissingCredential", err)
	}
	if len(signer.calls) != 0 {
		t.Errorf("signer invoked %d times without a credential", len(signer.calls))
	}
}

func TestCompose_PublishesIssuedEvent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	var got []events.Event
	dispatcher.Subscribe(events.EventTokenIssued, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})

	cfg := config.Config{Credential: config.CredentialConfig{AppID: "app-id", AppCertificate: "app-cert"}}
	s := NewTokenService(cfg, &fakeSigner{}, dispatcher)
	s.now = func() time.Time { return testNow }

	req := domain.TokenRequest{Channel: "room1", Subject: "42", Role: domain.RolePublisher, Variant: domain.VariantUID}
	if _, err := s.ComposeMediaToken(context.Background(), req); err != nil {
		t.Fatalf("ComposeMediaToken: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("events published = %d, want 1", len(got))
	}
	if got[0].Subject != "42" {
		t.Errorf("event subject = %q, want 42", got[0].Subject)
	}
	payload, ok := got[0].Payload.(events.TokenIssuedPayload)
	if !ok {
		t.Fatalf("payload type = %T, want TokenIssuedPayload", got[0].Payload)
	}
	if payload.Kind != domain.KindMedia || payload.Channel != "room1" {
		t.Errorf("payload = %+v, want kind rtc on channel room1", payload)
	}
	if payload.ExpiresAt != testNow.Unix()+3600 {
		t.Errorf("payload expiresAt = %d, want %d", payload.ExpiresAt, testNow.Unix()+3600)
	}
}
