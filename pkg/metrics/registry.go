// Package metrics provides a centralized Prometheus collector registry for
// the router.
//
// All metrics follow the naming convention:
// etl_router_<subsystem>_<metric_name>_<unit>
//
// Example:
//
//	reg := metrics.NewRegistry("etl_router", nil)
//	reg.Buffer().TotalRecords.Set(42)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the central registry for all Prometheus collectors the
// router exposes. It wraps a prometheus.Registerer so the admin HTTP
// server can scrape a single collector set.
//
// Thread-safe: collectors are created once and are themselves safe for
// concurrent use; category accessors are lazily initialized under a Once.
type Registry struct {
	namespace  string
	registerer prometheus.Registerer

	buffer     *BufferMetrics
	bufferOnce sync.Once

	registry     *RegistryMetrics
	registryOnce sync.Once

	lb     *LoadBalancerMetrics
	lbOnce sync.Once

	matcher     *MatcherMetrics
	matcherOnce sync.Once
}

// NewRegistry creates a Registry that registers its collectors against
// reg. Passing nil uses prometheus.DefaultRegisterer.
func NewRegistry(namespace string, reg prometheus.Registerer) *Registry {
	if namespace == "" {
		namespace = "etl_router"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Registry{namespace: namespace, registerer: reg}
}

// Buffer returns the buffer-manager metric set, creating it on first use.
func (r *Registry) Buffer() *BufferMetrics {
	r.bufferOnce.Do(func() {
		r.buffer = newBufferMetrics(r.namespace, r.registerer)
	})
	return r.buffer
}

// ServiceRegistry returns the service-registry metric set.
func (r *Registry) ServiceRegistry() *RegistryMetrics {
	r.registryOnce.Do(func() {
		r.registry = newRegistryMetrics(r.namespace, r.registerer)
	})
	return r.registry
}

// LoadBalancer returns the load-balancer metric set.
func (r *Registry) LoadBalancer() *LoadBalancerMetrics {
	r.lbOnce.Do(func() {
		r.lb = newLoadBalancerMetrics(r.namespace, r.registerer)
	})
	return r.lb
}

// Matcher returns the condition-matcher metric set.
func (r *Registry) Matcher() *MatcherMetrics {
	r.matcherOnce.Do(func() {
		r.matcher = newMatcherMetrics(r.namespace, r.registerer)
	})
	return r.matcher
}
