//go:build e2e

package auth_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sendhello/auth-service/internal/auth/app"
	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * Redis runs in a container shared by the package; each test gets its own
 * service instance and SQLite database.
 */

const (
	redisImage = "redis:7-alpine"

	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!"
	adminOrgSlug  = "admin"

	userPassword = "correct-horse"
	testKeyID    = "auth-e2e-key-001"
	testIssuer   = "auth-e2e"
)

var (
	redisHost string
	redisPort int
)

// TestMain starts Redis once before all tests and terminates it after all
// tests complete.
func TestMain(m *testing.M) {
	ctx := context.Background()

	fmt.Fprintf(os.Stdout, "Starting Redis container...")
	container, err := startRedis(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to start Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Terminating Redis container...")
	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to terminate Redis: %v\n", err)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func startRedis(ctx context.Context) (testcontainers.Container, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	mappedPort, err := container.MappedPort(ctx, "6379")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	redisHost = host
	redisPort = mappedPort.Int()
	return container, nil
}

// testConfig returns a complete EdDSA configuration with relaxed in-process
// rate limits, a fresh SQLite file and a fresh signing key.
func testConfig(t *testing.T) app.Config {
	t.Helper()
	dir := t.TempDir()

	relaxed := app.RateLimitOverride{Requests: 1000, WindowSec: 60, Burst: 1000}
	cfg := app.Config{
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "json",
		Port:                8080,
		ShutdownGracePeriod: 5 * time.Second,

		Issuer:         testIssuer,
		Algorithm:      app.AlgorithmEdDSA,
		SigningKeyFile: writeSigningKey(t, dir),
		KeyID:          testKeyID,
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     24 * time.Hour,

		RequestLimitPerMinute: 1000,

		RedisHost: redisHost,
		RedisPort: redisPort,

		DatabaseDriver: app.DriverSQLite,
		DatabaseURL:    filepath.Join(dir, "auth.db"),

		HistoryRetention:     24 * time.Hour,
		HousekeepingInterval: time.Hour,

		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		AdminOrgName:  "Administration",
		AdminOrgSlug:  adminOrgSlug,

		RateLimitStrict:   relaxed,
		RateLimitModerate: relaxed,
		RateLimitLenient:  relaxed,
		RateLimitPublic:   relaxed,
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func writeSigningKey(t *testing.T, dir string) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	path := filepath.Join(dir, "signing.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))
	return path
}

// setupAuthService builds the service from cfg and serves it in-process.
// It returns the base URL and a cleanup function.
func setupAuthService(t *testing.T, cfg app.Config) (string, func()) {
	t.Helper()

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())

	cleanup := func() {
		srv.Close()
		if err := application.Close(); err != nil {
			t.Logf("failed to close application: %v", err)
		}
	}
	return srv.URL, cleanup
}

// setupDefaultService is setupAuthService with testConfig.
func setupDefaultService(t *testing.T) (string, func()) {
	t.Helper()
	return setupAuthService(t, testConfig(t))
}

// signupUser registers an account and returns its id.
func signupUser(t *testing.T, client *authsdk.SDKClient, email string) string {
	t.Helper()

	user, err := client.Signup(t.Context(), authsdk.SignupRequest{
		Email:          email,
		Password:       userPassword,
		RepeatPassword: userPassword,
		FirstName:      "Test",
		LastName:       "User",
		Phone:          "0412345678",
	})
	require.NoError(t, err, "Signup should succeed")
	require.NotEmpty(t, user.ID)
	return user.ID
}

// performLogin logs in with the default user password.
func performLogin(t *testing.T, client *authsdk.SDKClient, email, orgID string) *authsdk.Session {
	t.Helper()

	session, err := client.Login(t.Context(), email, userPassword, orgID)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session)
	return session
}

// assertAPIError verifies err is the API error want, matched on status and code.
func assertAPIError(t *testing.T, err error, want *authsdk.APIError, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.ErrorIs(t, err, want, "%s - got: %v", context, err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
