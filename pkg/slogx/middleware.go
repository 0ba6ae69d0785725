package slogx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/sendhello/auth-service/pkg/idx"
	"go.opentelemetry.io/otel/trace"
)

const RequestIDHeader = "X-Request-ID"

// HTTPMiddleware puts a request-scoped logger in the context and writes one
// access line per request. The request id comes from X-Request-ID when the
// caller sent one and is echoed on the response either way.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = idx.New().String()
			}
			w.Header().Set(RequestIDHeader, reqID)

			attrs := []any{
				slog.String("req_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
			}
			logger := base.With(attrs...)

			ctx := context.WithValue(r.Context(), reqIDKey{}, reqID)
			m := httpsnoop.CaptureMetrics(next, w, r.WithContext(WithContext(ctx, logger)))

			logger.Info("http_request",
				slog.Int("status", m.Code),
				slog.Int64("duration_ms", m.Duration.Milliseconds()),
				slog.Int64("bytes", m.Written),
				slog.String("user_agent", r.UserAgent()),
			)
		})
	}
}
