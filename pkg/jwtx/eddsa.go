package jwtx

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSASigner signs with an Ed25519 private key.
type EdDSASigner struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

// NewSignerEdDSA loads a PKCS8 PEM Ed25519 private key.
func NewSignerEdDSA(kid string, pemKey []byte) (*EdDSASigner, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for Ed25519 key")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}
	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not Ed25519 private key")
	}

	return &EdDSASigner{
		kid: kid,
		key: key,
		pub: key.Public().(ed25519.PublicKey),
	}, nil
}

func (s *EdDSASigner) Alg() string { return jwt.SigningMethodEdDSA.Alg() }
func (s *EdDSASigner) KID() string { return s.kid }

func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// PublicKey is the verification half of the key pair.
func (s *EdDSASigner) PublicKey() ed25519.PublicKey { return s.pub }

func (s *EdDSASigner) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, "sig", s.Alg(), s.pub)
}

// EdDSAVerifier validates EdDSA tokens against public keys looked up by kid.
type EdDSAVerifier struct {
	keys map[string]ed25519.PublicKey
	opts VerifyOptions
}

func NewVerifierEdDSA(opts VerifyOptions) *EdDSAVerifier {
	return &EdDSAVerifier{keys: make(map[string]ed25519.PublicKey), opts: opts}
}

// AddKey trusts pub for tokens whose header carries kid. It is not safe to
// call concurrently with Verify; register keys at startup.
func (v *EdDSAVerifier) AddKey(kid string, pub ed25519.PublicKey) {
	v.keys[kid] = pub
}

func (v *EdDSAVerifier) Verify(token string) (Claims, error) {
	return parse(token, jwt.SigningMethodEdDSA.Alg(), v.opts, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		pub, ok := v.keys[kid]
		if !ok {
			return nil, ErrUnknownKID
		}
		return pub, nil
	})
}

// JWKS publishes every trusted key.
func (v *EdDSAVerifier) JWKS() JWKS {
	set := JWKS{Keys: make([]JWK, 0, len(v.keys))}
	for kid, pub := range v.keys {
		set.Keys = append(set.Keys, NewEd25519JWK(kid, "sig", jwt.SigningMethodEdDSA.Alg(), pub))
	}
	return set
}
