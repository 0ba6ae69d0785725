package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	httpapi "github.com/sendhello/auth-service/internal/auth/http"
	"github.com/sendhello/auth-service/internal/auth/ratelimit"
	"github.com/sendhello/auth-service/internal/auth/revocation"
	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/internal/auth/session"
	"github.com/sendhello/auth-service/internal/auth/store"
	"github.com/sendhello/auth-service/internal/auth/store/drivers/postgres"
	"github.com/sendhello/auth-service/internal/auth/store/drivers/sqlite"
	"github.com/sendhello/auth-service/pkg/cryptox"
	"github.com/sendhello/auth-service/pkg/httpx"
	"github.com/sendhello/auth-service/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	serviceName    = "auth-service"
	connectTimeout = 5 * time.Second
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg       Config
	logger    *slog.Logger
	telemetry *Telemetry

	// Core dependencies
	db          store.Store
	redis       *redis.Client
	revocations *revocation.RedisStore
	keys        SigningKeys

	// Services
	accountService      *service.AccountService
	organizationService *service.OrganizationService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService
	issuer              *session.Issuer
	guard               *session.Guard

	// adminOrgID is the bootstrap admin's organization; uuid.Nil disables
	// the user administration routes.
	adminOrgID uuid.UUID

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	telemetry, err := NewTelemetry(ctx, cfg.EnableTracer, cfg.OTLPEndpoint, serviceName, BuildVersion, cfg.OTLPInsecure)
	if err != nil {
		return nil, err
	}
	telemetry.SetGlobal()
	app.telemetry = telemetry

	if err := app.initDatabase(ctx); err != nil {
		_ = app.close()
		return nil, err
	}
	if err := app.initRedis(ctx); err != nil {
		_ = app.close()
		return nil, err
	}

	keys, err := InitSigningKeys(cfg, app.logger)
	if err != nil {
		_ = app.close()
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keys = keys

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}
	if err := app.bootstrap(ctx); err != nil {
		_ = app.close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler is the fully wired HTTP handler, for serving in-process.
func (app *Application) Handler() http.Handler {
	return app.server.Handler
}

// Run starts the application and blocks until SIGINT, SIGTERM or a server
// failure. Both paths stop housekeeping, flush telemetry and close the stores.
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.logger.Error("server stopped unexpectedly", "error", err)
		teardownErr := app.teardown()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return teardownErr
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.teardown(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// teardown stops the background worker, flushes telemetry within the grace
// period and closes the stores. The HTTP server must already be stopped.
func (app *Application) teardown() error {
	app.housekeepingService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()
	if err := app.telemetry.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing telemetry", "error", err)
	}

	return app.close()
}

// Close releases the database and Redis connections without serving. Use it
// when the application was built but never Run.
func (app *Application) Close() error {
	return app.close()
}

func (app *Application) close() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
		app.redis = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
		app.db = nil
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(app.cfg.DatabaseURL)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initRedis connects the revocation and rate-limit store. Authentication
// fails closed without it, so startup does too.
func (app *Application) initRedis(ctx context.Context) error {
	app.redis = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr(),
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	app.revocations = revocation.NewRedisStore(app.redis)

	if err := app.revocations.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr(), err)
	}

	app.logger.Info("connected to redis", "addr", app.cfg.RedisAddr(), "db", app.cfg.RedisDB)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.accountService = &service.AccountService{
		Store:  app.db,
		Hasher: cryptox.NewPasswordHasher(pepper),
	}
	app.organizationService = &service.OrganizationService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{
		Accounts:      app.accountService,
		Organizations: app.organizationService,
	}

	app.issuer = &session.Issuer{
		Signer:      app.keys.Signer,
		Verifier:    app.keys.Verifier,
		Revocations: app.revocations,
		Users:       app.accountService,
		IssuerName:  app.cfg.Issuer,
		AccessTTL:   app.cfg.AccessTTL,
		RefreshTTL:  app.cfg.RefreshTTL,
	}
	app.guard = &session.Guard{
		Verifier:    app.keys.Verifier,
		Limiter:     ratelimit.NewFixedWindow(app.redis, app.cfg.RequestLimitPerMinute),
		Revocations: app.revocations,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.HistoryRetention,
	)
	return nil
}

// bootstrap seeds the configured admin account, if any
func (app *Application) bootstrap(ctx context.Context) error {
	if app.cfg.AdminEmail == "" {
		return nil
	}

	orgID, _, err := app.bootstrapService.EnsureAdmin(slogx.WithContext(ctx, app.logger), service.BootstrapAdmin{
		Email:    app.cfg.AdminEmail,
		Password: app.cfg.AdminPassword,
		OrgName:  app.cfg.AdminOrgName,
		OrgSlug:  app.cfg.AdminOrgSlug,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	app.adminOrgID = orgID
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	limits := httpapi.DefaultLimits()
	limits.Strict = applyOverride(limits.Strict, app.cfg.RateLimitStrict)
	limits.Moderate = applyOverride(limits.Moderate, app.cfg.RateLimitModerate)
	limits.Lenient = applyOverride(limits.Lenient, app.cfg.RateLimitLenient)
	limits.Public = applyOverride(limits.Public, app.cfg.RateLimitPublic)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           app.logger,
		Version:          BuildVersion,
		Debug:            app.cfg.Debug,
		RequireRequestID: app.cfg.RequireRequestID(),
		Limits:           limits,
		Guard:            app.guard,
		Issuer:           app.issuer,
		Accounts:         app.accountService,
		Organizations:    app.organizationService,
		AdminOrgID:       app.adminOrgID,
		Database:         app.db,
		Redis:            app.revocations,
		Keys:             app.keys.JWKS,
	})
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func applyOverride(base httpx.RateLimitConfig, o RateLimitOverride) httpx.RateLimitConfig {
	return base.Override(o.Requests, o.Window(), o.Burst)
}
