// Package middleware provides HTTP middleware for the measurecast web server:
// request logging, panic recovery and CORS.
package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/server/response"
	"github.com/agentstation/measurecast/pkg/logging"
)

// Chain combines multiple middleware functions into a single middleware.
// The first middleware is the outermost.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Logger puts a request-scoped logger in the context and writes one line when
// the handler returns. Push connections are logged when they close.
func Logger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			reqLog := logger.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			ctx := logging.WithRemote(logging.WithLogger(r.Context(), &reqLog), r.RemoteAddr)
			next.ServeHTTP(rw, r.WithContext(ctx))

			l := logging.FromContext(ctx)
			ev := l.Info()
			if rw.statusCode >= http.StatusInternalServerError {
				ev = l.Warn()
			}
			ev.Int("status", rw.statusCode).
				Dur("elapsed", time.Since(began)).
				Bool("upgraded", rw.hijacked).
				Msg("HTTP request")
		})
	}
}

// Recovery turns a handler panic into a 500 JSON error.
func Recovery(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				logger.Error().
					Str("panic", fmt.Sprint(v)).
					Str("path", r.URL.Path).
					Msg("Panic recovered")
				response.InternalError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter captures the status code. It forwards Flush and Hijack so
// SSE streams and WebSocket upgrades work behind the logger.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	hijacked   bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	conn, buf, err := h.Hijack()
	if err == nil {
		rw.hijacked = true
		rw.statusCode = http.StatusSwitchingProtocols
	}
	return conn, buf, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
