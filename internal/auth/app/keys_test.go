package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sendhello/auth-service/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func roundTrip(t *testing.T, keys SigningKeys) {
	t.Helper()

	claims := jwtx.Claims{UserID: "u-1", Email: "jane@example.com"}.
		Stamp(jwtx.TypeAccess, "access.u-1.d", "auth-test", time.Minute, time.Now())
	token, err := keys.Signer.Sign(claims)
	require.NoError(t, err)

	got, err := keys.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", got.UserID)
}

func TestInitSigningKeysHS256(t *testing.T) {
	keys, err := InitSigningKeys(Config{
		Issuer:    "auth-test",
		Algorithm: AlgorithmHS256,
		SecretKey: "test-secret",
	}, discardLogger())
	require.NoError(t, err)
	require.Equal(t, "HS256", keys.Signer.Alg())
	require.Empty(t, keys.JWKS.Keys)

	roundTrip(t, keys)
}

func TestInitSigningKeysEdDSA(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "signing.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

	keys, err := InitSigningKeys(Config{
		Issuer:         "auth-test",
		Algorithm:      AlgorithmEdDSA,
		SigningKeyFile: path,
		KeyID:          "k1",
	}, discardLogger())
	require.NoError(t, err)
	require.Equal(t, "EdDSA", keys.Signer.Alg())
	require.Len(t, keys.JWKS.Keys, 1)
	require.Equal(t, "k1", keys.JWKS.Keys[0].Kid)
	require.Equal(t, "OKP", keys.JWKS.Keys[0].Kty)

	roundTrip(t, keys)
}

func TestInitSigningKeysMissingFile(t *testing.T) {
	_, err := InitSigningKeys(Config{
		Algorithm:      AlgorithmEdDSA,
		SigningKeyFile: filepath.Join(t.TempDir(), "absent.pem"),
	}, discardLogger())
	require.Error(t, err)
}
