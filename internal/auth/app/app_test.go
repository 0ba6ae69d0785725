package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func TestRunFlushesTelemetryWhenServeFails(t *testing.T) {
	// hold the port so ListenAndServe fails at once
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flushed := false
	app := &Application{
		cfg:    Config{ShutdownGracePeriod: time.Second},
		logger: logger,
		telemetry: &Telemetry{Shutdown: func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			require.True(t, hasDeadline)
			flushed = true
			return nil
		}},
		db:                  st,
		housekeepingService: service.NewHousekeepingService(st, logger, time.Hour, time.Hour),
		server:              &http.Server{Addr: busy.Addr().String(), ReadHeaderTimeout: time.Second},
	}

	err = app.Run()
	require.Error(t, err)
	require.ErrorContains(t, err, "server failed")
	require.True(t, flushed, "telemetry is flushed before Run returns")
	require.Nil(t, app.db, "stores are closed")
}
