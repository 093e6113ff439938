package dto

import "time"

// LoginRequest payload for operator login.
type LoginRequest struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
