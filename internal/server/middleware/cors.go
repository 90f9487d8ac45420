package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORSConfig holds CORS configuration. An empty or "*" origin list, or
// AllowAll, answers every origin with "*".
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	AllowAll       bool
}

// DefaultCORSConfig allows read-only cross-origin access from any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Cache-Control", "Last-Event-ID"},
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when origin is not permitted.
func (c CORSConfig) allowOrigin(origin string) string {
	if c.AllowAll || len(c.AllowedOrigins) == 0 || slices.Contains(c.AllowedOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(c.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

// CORS sets CORS headers and answers OPTIONS preflights with 204.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	fixed := map[string]string{
		"Access-Control-Allow-Methods": strings.Join(config.AllowedMethods, ", "),
		"Access-Control-Allow-Headers": strings.Join(config.AllowedHeaders, ", "),
		"Access-Control-Max-Age":       "86400",
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if allowed := config.allowOrigin(r.Header.Get("Origin")); allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				if allowed != "*" {
					h.Add("Vary", "Origin")
				}
			}
			for k, v := range fixed {
				h.Set(k, v)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
