package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sendhello/auth-service/pkg/jwtx"
)

// clockLeeway tolerates skew between this service and downstream verifiers.
const clockLeeway = 5 * time.Second

// SigningKeys is the signer/verifier pair for session tokens and the public
// keys to publish.
type SigningKeys struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	JWKS     jwtx.JWKS
}

// InitSigningKeys builds the token signer for the configured algorithm.
//
// Algorithms:
//   - "HS256": shared SECRET_KEY; nothing is published in the JWKS.
//   - "EdDSA": Ed25519 PKCS8 PEM read from AUTH_SIGNING_KEY_FILE; the public
//     key is published under AUTH_KEY_ID.
func InitSigningKeys(cfg Config, logger *slog.Logger) (SigningKeys, error) {
	opts := jwtx.VerifyOptions{
		Issuer: cfg.Issuer,
		Leeway: clockLeeway,
	}

	switch cfg.Algorithm {
	case AlgorithmEdDSA:
		pemKey, err := os.ReadFile(filepath.Clean(cfg.SigningKeyFile))
		if err != nil {
			return SigningKeys{}, fmt.Errorf("failed to read signing key: %w", err)
		}
		signer, err := jwtx.NewSignerEdDSA(cfg.KeyID, pemKey)
		if err != nil {
			return SigningKeys{}, err
		}
		verifier := jwtx.NewVerifierEdDSA(opts)
		verifier.AddKey(signer.KID(), signer.PublicKey())

		logger.Info("loaded signing key", "algorithm", signer.Alg(), "kid", signer.KID(), "issuer", cfg.Issuer)
		return SigningKeys{Signer: signer, Verifier: verifier, JWKS: verifier.JWKS()}, nil

	default:
		hs, err := jwtx.NewHS256([]byte(cfg.SecretKey), opts)
		if err != nil {
			return SigningKeys{}, err
		}

		logger.Info("using shared signing secret", "algorithm", hs.Alg(), "issuer", cfg.Issuer)
		return SigningKeys{Signer: hs, Verifier: hs, JWKS: jwtx.JWKS{}}, nil
	}
}
