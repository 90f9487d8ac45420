package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.AllowedMethods, http.MethodGet)
	assert.Contains(t, cfg.AllowedHeaders, "Last-Event-ID")
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		config     CORSConfig
		origin     string
		wantOrigin string
	}{
		{name: "wildcard", config: DefaultCORSConfig(), origin: "http://example.com", wantOrigin: "*"},
		{name: "wildcard in list", config: CORSConfig{AllowedOrigins: []string{"http://a.test", "*"}}, origin: "http://b.test", wantOrigin: "*"},
		{name: "allow all", config: CORSConfig{AllowAll: true, AllowedOrigins: []string{"http://a.test"}}, origin: "http://b.test", wantOrigin: "*"},
		{name: "no origins configured", config: CORSConfig{}, origin: "http://b.test", wantOrigin: "*"},
		{name: "listed origin", config: CORSConfig{AllowedOrigins: []string{"http://a.test"}}, origin: "http://a.test", wantOrigin: "http://a.test"},
		{name: "unlisted origin", config: CORSConfig{AllowedOrigins: []string{"http://a.test"}}, origin: "http://b.test", wantOrigin: ""},
		{name: "no origin header", config: CORSConfig{AllowedOrigins: []string{"http://a.test"}}, origin: "", wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := CORS(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.True(t, called)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" && tt.wantOrigin != "*" {
				assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_PreflightShortCircuit(t *testing.T) {
	called := false
	handler := CORS(DefaultCORSConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, HEAD, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}
