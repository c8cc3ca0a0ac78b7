package adminserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/etl-router/internal/buffer"
	"github.com/flowmesh/etl-router/internal/registry"
)

func TestServer_Healthz(t *testing.T) {
	srv := New(":0", Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_BufferDebug_WithoutManagerReturns503(t *testing.T) {
	srv := New(":0", Deps{})

	req := httptest.NewRequest(http.MethodGet, "/debug/buffer", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_BufferDebug_WithManagerReturnsJSON(t *testing.T) {
	mgr := buffer.NewManager(buffer.DefaultConfig(), nil, nil)
	srv := New(":0", Deps{BufferManager: mgr})

	req := httptest.NewRequest(http.MethodGet, "/debug/buffer", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_buffered")
}

func TestServer_ServicesDebug_WithStore(t *testing.T) {
	store := registry.NewStore(0, nil, nil)
	store.Apply(registry.RegisterService{ServiceID: "svc-1"})

	srv := New(":0", Deps{Store: store})

	req := httptest.NewRequest(http.MethodGet, "/debug/services", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "svc-1")
}

func TestServer_MetricsEndpointServesPrometheusFormat(t *testing.T) {
	srv := New(":0", Deps{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
