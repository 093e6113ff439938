package accesstoken

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spec-kit/channel-token-service/internal/domain"
)

// Builder mints media and messaging tokens for the composer. It is
// stateless and safe for concurrent use.
type Builder struct{}

// NewBuilder returns a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SignByUID mints a media token for a numeric subject. The uid string must
// parse as an unsigned 32-bit integer; anything else is a signing failure,
// not a validation failure.
func (Builder) SignByUID(cred domain.SigningCredential, channel, uid string, role domain.Role, expiresAt int64) (string, error) {
	parsed, err := strconv.ParseUint(uid, 10, 32)
	if err != nil {
		return "", fmt.Errorf("accesstoken: parsing uid %q: %w", uid, err)
	}

	token := newMediaToken(cred.AppID, channel, role, expiresAt)
	token.UID = uint32(parsed)
	return Mint(cred.AppCertificate, token)
}

// SignByAccount mints a media token for a string account handle.
func (Builder) SignByAccount(cred domain.SigningCredential, channel, account string, role domain.Role, expiresAt int64) (string, error) {
	token := newMediaToken(cred.AppID, channel, role, expiresAt)
	token.Account = account
	return Mint(cred.AppCertificate, token)
}

// SignMessaging mints a messaging login token. Messaging tokens carry the
// single login privilege regardless of the resolved role.
func (Builder) SignMessaging(cred domain.SigningCredential, userID string, _ domain.Role, expiresAt int64) (string, error) {
	token := &Token{
		Service: ServiceMessaging,
		AppID:   cred.AppID,
		Account: userID,
		Privileges: map[uint16]int64{
			PrivilegeLogin: expiresAt,
		},
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expiresAt,
		Salt:      newSalt(),
	}
	return Mint(cred.AppCertificate, token)
}

func newMediaToken(appID, channel string, role domain.Role, expiresAt int64) *Token {
	privileges := map[uint16]int64{
		PrivilegeJoinChannel: expiresAt,
	}
	if role == domain.RolePublisher {
		privileges[PrivilegePublishAudio] = expiresAt
		privileges[PrivilegePublishVideo] = expiresAt
		privileges[PrivilegePublishData] = expiresAt
	}

	return &Token{
		Service:    ServiceMedia,
		AppID:      appID,
		Channel:    channel,
		Privileges: privileges,
		IssuedAt:   time.Now().Unix(),
		ExpiresAt:  expiresAt,
		Salt:       newSalt(),
	}
}
