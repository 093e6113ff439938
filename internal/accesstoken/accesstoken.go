// Package accesstoken mints and verifies the signed channel credentials
// handed out to clients. A token is a CBOR-encoded privilege table followed
// by an HMAC-SHA256 signature keyed with the app certificate, base64-encoded
// behind a version prefix. Holders present the artifact as-is; nothing in
// this service stores or looks tokens up after issuance.
package accesstoken

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Version prefixes every artifact. Verifiers reject anything else, so the
// format can evolve without ambiguity.
const Version = "001"

// signatureSize is the fixed size of the trailing HMAC-SHA256 signature.
const signatureSize = sha256.Size

// Service selectors. A media token is never valid for messaging login and
// vice versa.
const (
	ServiceMedia     uint8 = 1
	ServiceMessaging uint8 = 2
)

// Privileges packed into the token, keyed by privilege ID with the unix
// second each one lapses. Join alone is receive-only; the three publish
// privileges are added for publishers. Messaging tokens carry only login.
const (
	PrivilegeJoinChannel  uint16 = 1
	PrivilegePublishAudio uint16 = 2
	PrivilegePublishVideo uint16 = 3
	PrivilegePublishData  uint16 = 4
	PrivilegeLogin        uint16 = 1000
)

// Token is the CBOR payload of a signed channel credential. Integer keys
// keep the encoding compact; field numbers are part of the wire format and
// must never be reused.
type Token struct {
	// Service scopes the token to media or messaging.
	Service uint8 `cbor:"1,keyasint"`

	// AppID names the application the credential was issued under.
	AppID string `cbor:"2,keyasint"`

	// Channel is the session the subject may join. Empty for messaging
	// tokens, which are not channel-scoped.
	Channel string `cbor:"3,keyasint,omitempty"`

	// UID is the numeric subject identity. Set for uid-variant media
	// tokens only.
	UID uint32 `cbor:"4,keyasint,omitempty"`

	// Account is the string subject identity. Set for account-variant
	// media tokens and for messaging tokens.
	Account string `cbor:"5,keyasint,omitempty"`

	// Privileges maps privilege IDs to their expiry unix seconds.
	Privileges map[uint16]int64 `cbor:"6,keyasint"`

	// IssuedAt is the unix second the token was minted.
	IssuedAt int64 `cbor:"7,keyasint"`

	// ExpiresAt is the unix second after which the token is invalid.
	ExpiresAt int64 `cbor:"8,keyasint"`

	// Salt randomizes the payload so identical grants never produce
	// identical artifacts.
	Salt uint32 `cbor:"9,keyasint"`
}

// Errors returned by Verify and related functions.
var (
	ErrWrongVersion  = errors.New("accesstoken: unsupported token version")
	ErrTokenTooShort = errors.New("accesstoken: token too short for signature")
	ErrBadSignature  = errors.New("accesstoken: signature mismatch")
	ErrTokenExpired  = errors.New("accesstoken: token has expired")
)

// encMode is the CBOR encoder configured with Core Deterministic Encoding:
// the same payload always signs to identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("accesstoken: CBOR encoder initialization failed: " + err.Error())
	}
}

// Mint signs the token payload with the app certificate and returns the
// transportable artifact string.
func Mint(certificate string, token *Token) (string, error) {
	payload, err := encMode.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("accesstoken: encoding token payload: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(certificate))
	mac.Write(payload)

	raw := make([]byte, 0, len(payload)+signatureSize)
	raw = append(raw, payload...)
	raw = mac.Sum(raw)

	return Version + base64.RawURLEncoding.EncodeToString(raw), nil
}

// Verify checks the artifact's signature and expiry against the given
// certificate and returns the decoded payload.
func Verify(certificate, artifact string) (*Token, error) {
	return VerifyAt(certificate, artifact, time.Now())
}

// VerifyAt is like Verify but accepts an explicit time for the expiry
// check. This supports deterministic testing.
func VerifyAt(certificate, artifact string, now time.Time) (*Token, error) {
	if len(artifact) < len(Version) || artifact[:len(Version)] != Version {
		return nil, ErrWrongVersion
	}

	raw, err := base64.RawURLEncoding.DecodeString(artifact[len(Version):])
	if err != nil {
		return nil, fmt.Errorf("accesstoken: decoding artifact: %w", err)
	}
	if len(raw) <= signatureSize {
		return nil, ErrTokenTooShort
	}

	splitPoint := len(raw) - signatureSize
	payload := raw[:splitPoint]
	signature := raw[splitPoint:]

	mac := hmac.New(sha256.New, []byte(certificate))
	mac.Write(payload)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return nil, ErrBadSignature
	}

	var token Token
	if err := cbor.Unmarshal(payload, &token); err != nil {
		return nil, fmt.Errorf("accesstoken: decoding token payload: %w", err)
	}

	if now.Unix() >= token.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &token, nil
}

func newSalt() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("accesstoken: reading salt entropy: " + err.Error())
	}
	return binary.BigEndian.Uint32(buf[:])
}
