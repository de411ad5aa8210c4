package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey int

const reqIDKey ctxKey = 0

// RequestID injects a best-effort request id, taken from X-Request-Id or
// generated, into the context and the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			rid = generateID()
		}
		r = r.WithContext(context.WithValue(r.Context(), reqIDKey, rid))
		w.Header().Set("X-Request-Id", rid)
		next.ServeHTTP(w, r)
	})
}

// Logger logs method, path, status and latency for every request.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			l.Info().
				Str("rid", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Dur("latency", time.Since(start)).
				Msg("http_request")
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// GetRequestID returns the request id from context, "" when absent.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(reqIDKey).(string); ok {
		return s
	}
	return ""
}

// generateID is collision-safe enough for correlating log lines.
func generateID() string {
	return time.Now().UTC().Format("20060102T150405.000000000Z07:00")
}
