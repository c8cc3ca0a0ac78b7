package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegistryMetrics exposes service-registry membership counters.
type RegistryMetrics struct {
	ServicesTotal      *prometheus.GaugeVec
	CommandsApplied    *prometheus.CounterVec
	LeaseExpirations   prometheus.Counter
	StaleRejections    prometheus.Counter
}

func newRegistryMetrics(namespace string, reg prometheus.Registerer) *RegistryMetrics {
	m := &RegistryMetrics{
		ServicesTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "registry", Name: "services",
			Help: "Currently registered services, labeled by health state.",
		}, []string{"health"}),
		CommandsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "registry", Name: "commands_applied_total",
			Help: "RouterCommands applied by the registry reducer, labeled by command type.",
		}, []string{"command"}),
		LeaseExpirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "registry", Name: "lease_expirations_total",
			Help: "Services dropped by the background lease sweep.",
		}),
		StaleRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "registry", Name: "stale_rejections_total",
			Help: "Commands rejected for being non-monotone (offsets, watermarks, generations).",
		}),
	}

	reg.MustRegister(m.ServicesTotal, m.CommandsApplied, m.LeaseExpirations, m.StaleRejections)
	return m
}
