package session

import "errors"

var (
	// ErrTokenInvalid covers malformed, expired, wrongly signed or wrongly
	// typed tokens. Callers see a generic unauthenticated response.
	ErrTokenInvalid = errors.New("session: invalid token")

	// ErrTokenRevoked means the access token is blacklisted, or the refresh
	// token is no longer the live one for its device.
	ErrTokenRevoked = errors.New("session: token revoked")

	ErrRateLimited = errors.New("session: rate limit exceeded")

	// ErrStoreUnavailable wraps revocation/rate-limit store failures. Security
	// checks fail closed on it.
	ErrStoreUnavailable = errors.New("session: revocation store unavailable")

	ErrAccountInactive = errors.New("session: account inactive")
)
