package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthHandlerHealthy(t *testing.T) {
	hm := NewHealthManager("1.2.3")
	hm.RegisterChecker("store", HealthCheckerFunc(func(ctx context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	hm.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, "1.2.3", resp.Version)
	require.Equal(t, "healthy", resp.Checks["store"])
}

func TestHealthHandlerUnhealthy(t *testing.T) {
	ResetHTTPErrorResponder()
	hm := NewHealthManager("1.2.3")
	hm.RegisterChecker("provider", HealthCheckerFunc(func(ctx context.Context) error {
		return errors.New("no api key")
	}))

	rec := httptest.NewRecorder()
	hm.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProbeHandlers(t *testing.T) {
	hm := NewHealthManager("1.2.3")

	for _, probe := range []func(http.ResponseWriter, *http.Request){
		hm.LivenessHandler,
		hm.ReadinessHandler,
		hm.StartupHandler,
	} {
		rec := httptest.NewRecorder()
		probe(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ProbeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "healthy", resp.Status)
	}
}

func TestGlobalHealthManagerNotInitialized(t *testing.T) {
	ResetHTTPErrorResponder()
	globalHealthManager = nil

	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
