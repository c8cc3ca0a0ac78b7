// Package adminserver exposes a read-only HTTP inspection surface over the
// router's live state: health, Prometheus scrape, and JSON dumps of
// buffer/registry/load-balancer state for operators. It never mutates
// anything — every route here is a query against the other packages.
package adminserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowmesh/etl-router/internal/buffer"
	"github.com/flowmesh/etl-router/internal/loadbalancer"
	"github.com/flowmesh/etl-router/internal/registry"
	"github.com/flowmesh/etl-router/internal/routing"
	"github.com/flowmesh/etl-router/pkg/logger"
)

// Deps are the components the admin surface reads from. Any may be nil;
// routes that need an absent dependency report 503.
type Deps struct {
	BufferManager *buffer.Manager
	Store         *registry.Store
	LoadBalancer  *loadbalancer.LoadBalancer
	Matcher       *routing.ConditionMatcher
	Logger        *slog.Logger
}

// Server wraps an http.Server bound to a mux.Router built from Deps.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the admin HTTP server listening on addr.
func New(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	router := mux.NewRouter()
	router.Use(logger.LoggingMiddleware(deps.Logger))

	router.HandleFunc("/healthz", handleHealthz()).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	debug := router.PathPrefix("/debug").Subrouter()
	debug.HandleFunc("/buffer", handleBufferDebug(deps.BufferManager)).Methods(http.MethodGet)
	debug.HandleFunc("/services", handleServicesDebug(deps.Store)).Methods(http.MethodGet)
	debug.HandleFunc("/services/{serviceID}/connections", handleConnectionsDebug(deps.LoadBalancer)).Methods(http.MethodGet)
	debug.HandleFunc("/routing/cache", handleRoutingCacheDebug(deps.Matcher)).Methods(http.MethodGet)

	return &Server{
		logger: deps.Logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving in the background. Call Shutdown to stop it.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("admin server stopped unexpectedly", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleBufferDebug(mgr *buffer.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			http.Error(w, "buffer manager not configured", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"total_buffered":     mgr.GetTotalBuffered(),
			"global_utilization": mgr.GetGlobalUtilization(),
			"stages_with_data":   mgr.GetStagesWithData(),
		})
	}
}

func handleServicesDebug(store *registry.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "registry store not configured", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, store.AllServices())
	}
}

func handleConnectionsDebug(lb *loadbalancer.LoadBalancer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lb == nil {
			http.Error(w, "load balancer not configured", http.StatusServiceUnavailable)
			return
		}
		serviceID := mux.Vars(r)["serviceID"]
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"service_id":  serviceID,
			"connections": lb.ConnectionCount(serviceID),
		})
	}
}

func handleRoutingCacheDebug(m *routing.ConditionMatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			http.Error(w, "condition matcher not configured", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, m.CacheStats())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
