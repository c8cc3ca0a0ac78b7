package metrics

import "github.com/prometheus/client_golang/prometheus"

// MatcherMetrics exposes condition-matcher regex cache counters.
type MatcherMetrics struct {
	RegexCacheHits   prometheus.Counter
	RegexCacheMisses prometheus.Counter
}

func newMatcherMetrics(namespace string, reg prometheus.Registerer) *MatcherMetrics {
	m := &MatcherMetrics{
		RegexCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "matcher", Name: "regex_cache_hits_total",
			Help: "MetadataMatch evaluations served from the compiled-pattern cache.",
		}),
		RegexCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "matcher", Name: "regex_cache_misses_total",
			Help: "MetadataMatch evaluations that required on-demand compilation.",
		}),
	}

	reg.MustRegister(m.RegexCacheHits, m.RegexCacheMisses)
	return m
}
