package credstore

import "time"

// Record is an immutable snapshot of one provider's OAuth tokens.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is the absolute expiry of the access token in epoch
	// milliseconds, never a relative offset.
	ExpiresAt int64  `json:"expires_at"`
	TokenType string `json:"token_type"`
	Scope     string `json:"scope"`
}

// Expiry returns ExpiresAt as a time.Time.
func (r Record) Expiry() time.Time {
	return time.UnixMilli(r.ExpiresAt)
}
