//go:build !integration

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		origins        []string
		method         string
		origin         string
		expectedStatus int
		checkHeaders   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:           "preflight from an allowed origin",
			origins:        []string{"https://labels.example.com"},
			method:         http.MethodOptions,
			origin:         "https://labels.example.com",
			expectedStatus: http.StatusNoContent,
			checkHeaders: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "https://labels.example.com", w.Header().Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "GET from an allowed origin exposes idempotency headers",
			origins:        []string{"https://labels.example.com"},
			method:         http.MethodGet,
			origin:         "https://labels.example.com",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "https://labels.example.com", w.Header().Get("Access-Control-Allow-Origin"))
				assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), IdempotencyReplayedHeader)
			},
		},
		{
			name:           "default origins",
			method:         http.MethodGet,
			origin:         DefaultCORSOrigins[0],
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, DefaultCORSOrigins[0], w.Header().Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "disallowed origin is rejected",
			origins:        []string{"https://labels.example.com"},
			method:         http.MethodGet,
			origin:         "https://evil.example.com",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "request without origin",
			method:         http.MethodPost,
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()

			router.Use(CORS(tt.origins))
			router.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})
			router.POST("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkHeaders != nil {
				tt.checkHeaders(t, w)
			}
		})
	}
}
