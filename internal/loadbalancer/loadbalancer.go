// Package loadbalancer picks one service out of a candidate slice using one
// of four strategies, and tracks the per-service-name round-robin counters,
// per-service-id connection counts, and per-service-id weights that the
// strategies read.
package loadbalancer

import (
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/flowmesh/etl-router/internal/registry"
	"github.com/flowmesh/etl-router/pkg/metrics"
)

// DefaultWeight is the weight WeightedRandom assumes for a service that
// has never had SetWeight called for it.
const DefaultWeight uint32 = 100

// LoadBalancer holds the counters and weights the four strategies consult.
// The zero value is not usable; construct with New.
type LoadBalancer struct {
	logger *slog.Logger
	m      *metrics.LoadBalancerMetrics

	rrMu       sync.Mutex
	rrCounters map[string]uint64 // service name -> round-robin counter

	connMu sync.Mutex
	conns  map[string]uint64 // service id -> connection count

	weightMu sync.Mutex
	weights  map[string]uint32 // service id -> weight
}

// New creates an empty LoadBalancer. logger and m may be nil.
func New(logger *slog.Logger, m *metrics.LoadBalancerMetrics) *LoadBalancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadBalancer{
		logger:     logger,
		m:          m,
		rrCounters: make(map[string]uint64),
		conns:      make(map[string]uint64),
		weights:    make(map[string]uint32),
	}
}

// Select picks exactly one service from candidates, or reports ok=false iff
// candidates is empty. A single-element input always short-circuits to
// that element regardless of strategy.
func (lb *LoadBalancer) Select(candidates []registry.RegisteredService, strategy Strategy, routingKey string) (registry.RegisteredService, bool) {
	if len(candidates) == 0 {
		return registry.RegisteredService{}, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	var chosen registry.RegisteredService
	switch strategy {
	case LeastConnections:
		chosen = lb.leastConnections(candidates)
	case WeightedRandom:
		chosen = lb.weightedRandom(candidates)
	case ConsistentHash:
		chosen = lb.consistentHash(candidates, routingKey)
	default:
		chosen = lb.roundRobin(candidates)
	}

	if lb.m != nil {
		lb.m.Selections.WithLabelValues(strategy.String()).Inc()
	}
	return chosen, true
}

func (lb *LoadBalancer) roundRobin(candidates []registry.RegisteredService) registry.RegisteredService {
	key := candidates[0].ServiceName

	lb.rrMu.Lock()
	counter := lb.rrCounters[key]
	lb.rrCounters[key] = counter + 1
	lb.rrMu.Unlock()

	idx := int(counter % uint64(len(candidates)))
	return candidates[idx]
}

func (lb *LoadBalancer) leastConnections(candidates []registry.RegisteredService) registry.RegisteredService {
	lb.connMu.Lock()
	defer lb.connMu.Unlock()

	selected := candidates[0]
	minConns := lb.conns[selected.ServiceID]

	for _, svc := range candidates[1:] {
		count := lb.conns[svc.ServiceID]
		if count < minConns {
			minConns = count
			selected = svc
		}
	}
	return selected
}

func (lb *LoadBalancer) weightedRandom(candidates []registry.RegisteredService) registry.RegisteredService {
	lb.weightMu.Lock()
	weights := make([]uint32, len(candidates))
	var total uint64
	for i, svc := range candidates {
		w, ok := lb.weights[svc.ServiceID]
		if !ok {
			w = DefaultWeight
		}
		weights[i] = w
		total += uint64(w)
	}
	lb.weightMu.Unlock()

	if total == 0 {
		return candidates[0]
	}

	point := rand.Uint64N(total)
	var cumulative uint64
	for i, w := range weights {
		cumulative += uint64(w)
		if point < cumulative {
			return candidates[i]
		}
	}
	return candidates[0]
}

func (lb *LoadBalancer) consistentHash(candidates []registry.RegisteredService, routingKey string) registry.RegisteredService {
	if routingKey == "" {
		routingKey = "default"
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(routingKey))
	idx := int(h.Sum64() % uint64(len(candidates)))
	return candidates[idx]
}

// IncrementConnections bumps service's tracked connection count.
func (lb *LoadBalancer) IncrementConnections(serviceID string) {
	lb.connMu.Lock()
	lb.conns[serviceID]++
	lb.connMu.Unlock()
	if lb.m != nil {
		lb.m.Connections.WithLabelValues(serviceID).Inc()
	}
}

// DecrementConnections lowers service's tracked connection count, floored
// at zero.
func (lb *LoadBalancer) DecrementConnections(serviceID string) {
	lb.connMu.Lock()
	if c := lb.conns[serviceID]; c > 0 {
		lb.conns[serviceID] = c - 1
	}
	lb.connMu.Unlock()
	if lb.m != nil {
		lb.m.Connections.WithLabelValues(serviceID).Dec()
	}
}

// SetWeight sets service's weight for WeightedRandom. Services with no
// weight set default to DefaultWeight.
func (lb *LoadBalancer) SetWeight(serviceID string, weight uint32) {
	lb.weightMu.Lock()
	lb.weights[serviceID] = weight
	lb.weightMu.Unlock()
}

// ConnectionCount returns service's currently tracked connection count.
func (lb *LoadBalancer) ConnectionCount(serviceID string) uint64 {
	lb.connMu.Lock()
	defer lb.connMu.Unlock()
	return lb.conns[serviceID]
}
