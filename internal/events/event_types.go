package events

import (
	"time"

	"github.com/spec-kit/channel-token-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTokenIssued EventType = "token_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TokenIssuedPayload payload.
type TokenIssuedPayload struct {
	Kind      domain.TokenKind `json:"kind"`
	Channel   string           `json:"channel,omitempty"`
	ExpiresAt int64            `json:"expires_at"`
}
