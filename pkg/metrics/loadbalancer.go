package metrics

import "github.com/prometheus/client_golang/prometheus"

// LoadBalancerMetrics exposes selection-strategy counters.
type LoadBalancerMetrics struct {
	Selections  *prometheus.CounterVec
	Connections *prometheus.GaugeVec
}

func newLoadBalancerMetrics(namespace string, reg prometheus.Registerer) *LoadBalancerMetrics {
	m := &LoadBalancerMetrics{
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "loadbalancer", Name: "selections_total",
			Help: "Selections made, labeled by strategy.",
		}, []string{"strategy"}),
		Connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "loadbalancer", Name: "connections",
			Help: "Advisory connection counts, labeled by service id.",
		}, []string{"service_id"}),
	}

	reg.MustRegister(m.Selections, m.Connections)
	return m
}
