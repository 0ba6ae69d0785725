package jwtx

import (
	"errors"
	"time"
)

// Signer is anything that can sign session claims.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// Verifier validates a JWT and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// KeyPublisher is implemented by signers whose verification key may be
// published in a JWKS.
type KeyPublisher interface {
	PublicJWK() JWK
}

// VerifyOptions captures expectations shared by verifiers.
type VerifyOptions struct {
	// Issuer the token must carry. Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew on exp/nbf.
	Leeway time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrUnknownKID = errors.New("jwtx: unknown kid")
	ErrExpired    = errors.New("jwtx: token expired")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")
	ErrTokenType  = errors.New("jwtx: unexpected token type")
	ErrNoKey      = errors.New("jwtx: missing signing key")
)
