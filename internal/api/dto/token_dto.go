package dto

// TokenRequest payload for POST issuance. Kind selects the issuance flavor:
// rtc, rtm or rte.
type TokenRequest struct {
	Kind      string `json:"kind"`
	Channel   string `json:"channel"`
	Role      string `json:"role"`
	TokenType string `json:"tokentype"`
	UID       string `json:"uid"`
	Expiry    string `json:"expiry"`
}

// TokenResponse carries a single signed artifact.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// CombinedTokenResponse carries the media and messaging artifacts of an rte
// issuance.
type CombinedTokenResponse struct {
	RTCToken  string `json:"rtc_token"`
	RTMToken  string `json:"rtm_token"`
	ExpiresAt int64  `json:"expires_at"`
}
