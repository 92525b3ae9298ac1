//go:build integration

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guttosm/label-print-service/config"
	"github.com/guttosm/label-print-service/internal/service"
	"github.com/guttosm/label-print-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integrationConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.FromViper(config.New())
	cfg.Detection.USBPattern = t.TempDir() + "/lp*"
	cfg.Detection.BluetoothPattern = t.TempDir() + "/rfcomm*"
	cfg.Database = config.DatabaseConfig{
		URI:                            getSharedContainerURI(),
		DatabaseName:                   sanitizeDBNameForApp(t.Name()),
		LogsTTL:                        30 * 24 * time.Hour,
		Enabled:                        true,
		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,
		TransactionCacheSize:           16,
		TransactionCacheTTL:            time.Minute,
	}
	cfg.Redis.Enabled = false
	return cfg
}

func TestInitializeApp_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("with MongoDB", func(t *testing.T) {
		application, err := InitializeApp(integrationConfig(t))
		require.NoError(t, err)
		t.Cleanup(func() { _ = application.Shutdown(ctx) })

		require.NotNil(t, application.Database)
		assert.Nil(t, application.Redis)
		assert.IsType(t, &service.CachedTransactionSource{}, application.Services.Transactions)

		w := httptest.NewRecorder()
		application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"mongodb":"ok"`)
		assert.Contains(t, w.Body.String(), `"mongodb_print_jobs_circuit":"closed"`)

		w = httptest.NewRecorder()
		application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/print/jobs/1/history", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"job_not_found"`)
	})

	t.Run("with MongoDB and Redis", func(t *testing.T) {
		rc, err := testutil.SetupRedis(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = rc.Cleanup(ctx) })

		cfg := integrationConfig(t)
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = rc.URI

		application, err := InitializeApp(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = application.Shutdown(ctx) })
		require.NotNil(t, application.Redis)

		w := httptest.NewRecorder()
		application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Contains(t, w.Body.String(), `"redis":"ok"`)
	})

	t.Run("unreachable MongoDB falls back to memory", func(t *testing.T) {
		cfg := integrationConfig(t)
		cfg.Database.URI = "mongodb://127.0.0.1:1"

		application, err := InitializeApp(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = application.Shutdown(ctx) })

		assert.Nil(t, application.Database)
	})
}

func TestApp_TransactionsPersistAcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := integrationConfig(t)

	first, err := InitializeApp(cfg)
	require.NoError(t, err)

	body := `{"transaction_no": "TRX-900", "company": "ACME", "entry_date": "2024-05-01",
		"batch_number": "B-1", "sku_id": "SKU-1", "total_net_weight": 1.5, "total_gross_weight": 2.0,
		"boxes": [{"box_number": 1, "net_weight": 1.5, "gross_weight": 2.0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	first.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, first.Shutdown(ctx))

	second, err := InitializeApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Shutdown(ctx) })

	w = httptest.NewRecorder()
	second.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/transactions/ACME/TRX-900", nil))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
