package domain

import "time"

// TokenPair is what login and refresh return: a short-lived access token and
// the single currently valid refresh token for the device.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`
	Scope        string        `json:"scope,omitempty"` // space-delimited, selected org only
}
