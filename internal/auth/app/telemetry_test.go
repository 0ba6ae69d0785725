package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewTelemetryDisabled(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		enabled  bool
		endpoint string
	}{
		{false, "collector:4317"},
		{true, ""},
		{true, "   "},
	} {
		tel, err := NewTelemetry(ctx, tc.enabled, tc.endpoint, "auth-test", "v0", false)
		require.NoError(t, err)
		require.NotNil(t, tel.TracerProvider)
		require.NotNil(t, tel.MeterProvider)
		require.NoError(t, tel.Shutdown(ctx))
	}
}

func TestNewTelemetryEnabled(t *testing.T) {
	ctx := context.Background()

	// Exporters dial lazily, so no collector is needed to build them.
	tel, err := NewTelemetry(ctx, true, "http://127.0.0.1:4317", "auth-test", "v0", false)
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)

	tel.SetGlobal()
	require.Equal(t, tel.TracerProvider, otel.GetTracerProvider())

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = tel.Shutdown(shutdownCtx)
}

func TestOTLPTarget(t *testing.T) {
	tests := []struct {
		endpoint     string
		wantTarget   string
		wantInsecure bool
		wantErr      bool
	}{
		{"collector:4317", "collector:4317", true, false},
		{"http://collector:4317/v1/traces", "collector:4317", true, false},
		{"https://collector.example.com:4317", "collector.example.com:4317", false, false},
		{"http://", "", false, true},
		{"http://[invalid", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			target, insecure, err := otlpTarget(tt.endpoint)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantTarget, target)
			require.Equal(t, tt.wantInsecure, insecure)
		})
	}
}
