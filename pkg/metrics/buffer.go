package metrics

import "github.com/prometheus/client_golang/prometheus"

// BufferMetrics exposes buffer-manager depth and outcome counters.
type BufferMetrics struct {
	TotalRecords       prometheus.Gauge
	GlobalUtilization  prometheus.Gauge
	StageDepth         *prometheus.GaugeVec
	Admitted           prometheus.Counter
	Rejected           *prometheus.CounterVec
	Drained            prometheus.Counter
	ReturnedDropped    prometheus.Counter
}

func newBufferMetrics(namespace string, reg prometheus.Registerer) *BufferMetrics {
	m := &BufferMetrics{
		TotalRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "total_records",
			Help: "Current number of records held across all stage buffers.",
		}),
		GlobalUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "global_utilization_ratio",
			Help: "total_records / max_total_records.",
		}),
		StageDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "stage_depth",
			Help: "Current depth of a single stage buffer.",
		}, []string{"stage_id"}),
		Admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "admitted_total",
			Help: "Records successfully admitted into a stage buffer.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "rejected_total",
			Help: "Records rejected on admission, labeled by reason.",
		}, []string{"reason"}),
		Drained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "drained_total",
			Help: "Records removed from stage buffers via GetBatch.",
		}),
		ReturnedDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "return_dropped_total",
			Help: "Records dropped by ReturnToBuffer because the stage or global limit was reached.",
		}),
	}

	reg.MustRegister(
		m.TotalRecords, m.GlobalUtilization, m.StageDepth,
		m.Admitted, m.Rejected, m.Drained, m.ReturnedDropped,
	)
	return m
}
