package domain

import "fmt"

// Role is the privilege level a token grants within a channel.
type Role string

const (
	RolePublisher     Role = "PUBLISHER"
	RoleSubscriber    Role = "SUBSCRIBER"
	RoleMessagingUser Role = "MESSAGING_USER"
)

// MediaRole reports whether the role is valid for media issuance. The
// messaging role is never accepted on the media path.
func (r Role) MediaRole() bool {
	return r == RolePublisher || r == RoleSubscriber
}

// ParseRole maps an external media role token to its internal Role.
// "publisher" grants send-and-receive, "audience" receive-only; anything
// else is rejected.
func ParseRole(raw string) (Role, error) {
	switch raw {
	case "publisher":
		return RolePublisher, nil
	case "audience":
		return RoleSubscriber, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// TokenVariant selects how the media token identifies its subject.
type TokenVariant string

const (
	VariantUID     TokenVariant = "UID"
	VariantAccount TokenVariant = "USER_ACCOUNT"
)

// ParseTokenVariant maps the external token-type selector to its variant.
func ParseTokenVariant(raw string) (TokenVariant, error) {
	switch raw {
	case "uid":
		return VariantUID, nil
	case "userAccount":
		return VariantAccount, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTokenType, raw)
	}
}

// TokenKind names the issuance flavor, used on the wire and in telemetry.
type TokenKind string

const (
	KindMedia     TokenKind = "rtc"
	KindMessaging TokenKind = "rtm"
	KindCombined  TokenKind = "rte"
)

// SigningCredential is the process-wide app identity tokens are signed
// under. It is loaded once at startup and immutable afterwards.
type SigningCredential struct {
	AppID          string
	AppCertificate string
}

// Configured reports whether both halves of the credential are present.
func (c SigningCredential) Configured() bool {
	return c.AppID != "" && c.AppCertificate != ""
}

// PrivilegeWindow is the validity interval embedded in a token, in unix
// seconds. ExpiresAt is always IssuedAt plus the granted lifetime.
type PrivilegeWindow struct {
	IssuedAt  int64
	ExpiresAt int64
}

// TokenRequest carries the inputs for one issuance. Role and Variant are
// parsed into their closed types at the transport boundary; composers never
// see the raw selector strings.
type TokenRequest struct {
	// Channel is the session name. Required for media and combined
	// issuance, unused for messaging.
	Channel string

	// Subject identifies the party requesting access: a numeric uid or a
	// string account handle depending on the variant. Always required.
	Subject string

	// Role is the media privilege level. Ignored for messaging issuance.
	Role Role

	// Variant selects uid vs account signing. Media issuance only;
	// combined issuance always signs by uid.
	Variant TokenVariant

	// Expiry is the raw requested lifetime in seconds. Empty or
	// non-numeric values fall back to the default lifetime.
	Expiry string
}

// TokenArtifact is an opaque signed token together with its validity
// window. The artifact's internal structure is never inspected here.
type TokenArtifact struct {
	Token  string
	Window PrivilegeWindow
}

// TokenBundle carries the media and messaging artifacts of a combined
// issuance. Both share a single privilege window.
type TokenBundle struct {
	RTCToken string
	RTMToken string
	Window   PrivilegeWindow
}
