package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// HS256 signs and verifies with a shared secret.
type HS256 struct {
	secret []byte
	opts   VerifyOptions
}

// NewHS256 builds an HMAC-SHA256 signer/verifier.
func NewHS256(secret []byte, opts VerifyOptions) (*HS256, error) {
	if len(secret) == 0 {
		return nil, ErrNoKey
	}
	return &HS256{secret: secret, opts: opts}, nil
}

func (h *HS256) Alg() string { return jwt.SigningMethodHS256.Alg() }

// KID is empty: there is a single shared secret.
func (h *HS256) KID() string { return "" }

func (h *HS256) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

func (h *HS256) Verify(token string) (Claims, error) {
	return parse(token, h.Alg(), h.opts, func(*jwt.Token) (any, error) {
		return h.secret, nil
	})
}
