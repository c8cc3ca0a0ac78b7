package routing

import (
	"log/slog"
	"regexp"

	"github.com/flowmesh/etl-router/internal/record"
	"github.com/flowmesh/etl-router/pkg/metrics"
)

// MatcherOptions controls ConditionMatcher behavior.
type MatcherOptions struct {
	// CacheSize bounds the number of distinct regex patterns kept compiled.
	// Zero uses DefaultCacheSize.
	CacheSize int

	// Logger receives debug/warn lines for regex compilation failures.
	// Defaults to slog.Default() when nil.
	Logger *slog.Logger

	// Metrics, if non-nil, records regex cache hit/miss counters.
	Metrics *metrics.MatcherMetrics
}

// DefaultMatcherOptions returns the options used when none are supplied.
func DefaultMatcherOptions() MatcherOptions {
	return MatcherOptions{CacheSize: DefaultCacheSize}
}

// ConditionMatcher evaluates Condition trees against records, precompiling
// and caching MetadataMatch regex patterns it has seen.
//
// Evaluation is total: a malformed regex evaluates to false rather than
// propagating an error. Evaluation with or without the cache populated is
// semantically identical; only performance differs.
type ConditionMatcher struct {
	cache  *regexCache
	logger *slog.Logger
}

// NewConditionMatcher creates a matcher with its own regex cache.
func NewConditionMatcher(opts MatcherOptions) *ConditionMatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ConditionMatcher{
		cache:  newRegexCache(opts.CacheSize, opts.Metrics),
		logger: logger,
	}
}

// Precompile walks cond and its subtree, compiling and caching every
// MetadataMatch pattern found. Compilation failures are logged at warn
// level and otherwise dropped — Evaluate falls back to on-demand compilation and returns false if that
// also fails.
func (m *ConditionMatcher) Precompile(cond *Condition) {
	if cond == nil {
		return
	}
	switch cond.Kind {
	case KindMetadataMatch:
		if _, ok := m.cache.get(cond.Value); ok {
			return
		}
		re, err := regexp.Compile(cond.Value)
		if err != nil {
			m.logger.Warn("routing: failed to precompile pattern",
				"pattern", cond.Value, "error", err)
			return
		}
		m.cache.put(cond.Value, re)
	case KindAnd, KindOr:
		for _, c := range cond.Children {
			m.Precompile(c)
		}
	case KindNot:
		m.Precompile(cond.Child)
	}
}

// Evaluate evaluates cond against rec. It never panics or returns an error:
// a malformed regex pattern in a MetadataMatch node simply evaluates to
// false.
func (m *ConditionMatcher) Evaluate(cond *Condition, rec *record.Record) bool {
	if cond == nil {
		return false
	}
	switch cond.Kind {
	case KindRecordType:
		return rec != nil && rec.RecordType == cond.RecordType

	case KindMetadataExists:
		_, ok := rec.Get(cond.Key)
		return ok

	case KindMetadataEquals:
		v, ok := rec.Get(cond.Key)
		return ok && v == cond.Value

	case KindMetadataMatch:
		v, ok := rec.Get(cond.Key)
		if !ok {
			return false
		}
		return m.regexMatch(cond.Value, v)

	case KindAnd:
		for _, c := range cond.Children {
			if !m.Evaluate(c, rec) {
				return false
			}
		}
		return true

	case KindOr:
		for _, c := range cond.Children {
			if m.Evaluate(c, rec) {
				return true
			}
		}
		return false

	case KindNot:
		return !m.Evaluate(cond.Child, rec)

	case KindAlways:
		return true

	case KindNever:
		return false

	default:
		return false
	}
}

// regexMatch checks whether value matches pattern, using the cache when
// possible and compiling on demand otherwise. A compilation failure
// evaluates to false and is never inserted into the cache.
func (m *ConditionMatcher) regexMatch(pattern, value string) bool {
	if re, ok := m.cache.get(pattern); ok {
		return re.MatchString(value)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		m.logger.Debug("routing: malformed regex, treating as non-match",
			"pattern", pattern, "error", err)
		return false
	}

	m.cache.put(pattern, re)
	return re.MatchString(value)
}

// CacheStats returns current regex cache hit/miss/size statistics.
func (m *ConditionMatcher) CacheStats() CacheStats {
	return m.cache.stats()
}
