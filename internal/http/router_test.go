//go:build !integration

package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRouter(t *testing.T) {
	tests := []struct {
		name string
		cfg  RouterConfig
	}{
		{"default config", DefaultRouterConfig()},
		{"idempotency disabled", RouterConfig{RateLimit: 100, RateWindow: time.Minute}},
		{"no rate limit", RouterConfig{RequestTimeout: time.Second}},
		{"submit rate limit", RouterConfig{RateLimit: 100, RateWindow: time.Minute, SubmitRateLimit: 10}},
		{"swagger behind basic auth", RouterConfig{SwaggerUser: "ops", SwaggerPass: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(newFixture(t).handler, NewHealthHandler(), tt.cfg)
			assert.NotNil(t, router)
			assert.NotEmpty(t, router.Routes())
		})
	}
}

func TestNewRouter_WithoutHandler(t *testing.T) {
	router := NewRouter(nil, NewHealthHandler(), DefaultRouterConfig())

	for _, r := range router.Routes() {
		assert.False(t, strings.HasPrefix(r.Path, "/api/"), r.Path)
	}
}

func TestRouter_Endpoints(t *testing.T) {
	router := newFixture(t).router

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"healthz", http.MethodGet, "/healthz", http.StatusOK},
		{"readyz", http.MethodGet, "/readyz", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"swagger", http.MethodGet, "/swagger/index.html", http.StatusOK},
		{"submit without body", http.MethodPost, "/api/print/jobs", http.StatusBadRequest},
		{"batch without body", http.MethodPost, "/api/print/batches", http.StatusBadRequest},
		{"queue", http.MethodGet, "/api/print/queue", http.StatusOK},
		{"printers", http.MethodGet, "/api/printers", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRouter_SwaggerBasicAuth(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.SwaggerUser, cfg.SwaggerPass = "ops", "secret"
	router := NewRouter(nil, nil, cfg)

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.SetBasicAuth("ops", "secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SubmitRateLimitPerClient(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.SubmitRateLimit = 1
	router := NewRouter(newFixture(t).handler, nil, cfg)

	submit := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/print/jobs", strings.NewReader(`{}`))
		req.Header.Set(ClientIDHeader, client)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, submit("dock-1"))
	assert.Equal(t, http.StatusTooManyRequests, submit("dock-1"))
	assert.Equal(t, http.StatusBadRequest, submit("dock-2"))
}
