package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/etl-router/internal/record"
)

func TestConditionMatcher_BasicVariants(t *testing.T) {
	m := NewConditionMatcher(DefaultMatcherOptions())

	rec := &record.Record{
		RecordType: "event",
		Metadata:   map[string]string{"env": "prod", "region": "us-east-1"},
	}

	tests := []struct {
		name string
		cond *Condition
		want bool
	}{
		{"record type match", RecordType("event"), true},
		{"record type mismatch", RecordType("metric"), false},
		{"metadata exists", MetadataExists("env"), true},
		{"metadata missing", MetadataExists("missing"), false},
		{"metadata equals match", MetadataEquals("env", "prod"), true},
		{"metadata equals mismatch", MetadataEquals("env", "dev"), false},
		{"metadata regex match", MetadataMatch("region", "^us-"), true},
		{"metadata regex mismatch", MetadataMatch("region", "^eu-"), false},
		{"always", Always, true},
		{"never", Never, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Evaluate(tt.cond, rec))
		})
	}
}

func TestConditionMatcher_Combinators(t *testing.T) {
	m := NewConditionMatcher(DefaultMatcherOptions())

	prodEvent := &record.Record{RecordType: "event", Metadata: map[string]string{"env": "prod"}}
	devEvent := &record.Record{RecordType: "event", Metadata: map[string]string{"env": "dev"}}

	cond := And(RecordType("event"), MetadataEquals("env", "prod"))
	assert.True(t, m.Evaluate(cond, prodEvent))
	assert.False(t, m.Evaluate(cond, devEvent))

	assert.True(t, m.Evaluate(And(), nil), "And() with no children is true")
	assert.False(t, m.Evaluate(Or(), nil), "Or() with no children is false")

	notProd := Not(MetadataEquals("env", "prod"))
	assert.False(t, m.Evaluate(notProd, prodEvent))
	assert.True(t, m.Evaluate(notProd, devEvent))

	either := Or(MetadataEquals("env", "prod"), MetadataEquals("env", "staging"))
	assert.True(t, m.Evaluate(either, prodEvent))
	assert.False(t, m.Evaluate(either, devEvent))
}

func TestConditionMatcher_MalformedRegexNeverPanics(t *testing.T) {
	m := NewConditionMatcher(DefaultMatcherOptions())
	rec := &record.Record{Metadata: map[string]string{"k": "v"}}

	cond := MetadataMatch("k", "(unterminated[")

	require.NotPanics(t, func() {
		got := m.Evaluate(cond, rec)
		assert.False(t, got)
	})

	// Precompile should also swallow the compile error rather than panic.
	require.NotPanics(t, func() { m.Precompile(cond) })
}

func TestConditionMatcher_PrecompileThenEvaluateIsIdentical(t *testing.T) {
	rec := &record.Record{Metadata: map[string]string{"path": "/api/v1/widgets"}}
	cond := MetadataMatch("path", `^/api/v1/`)

	cached := NewConditionMatcher(DefaultMatcherOptions())
	cached.Precompile(cond)
	uncached := NewConditionMatcher(DefaultMatcherOptions())

	assert.Equal(t, uncached.Evaluate(cond, rec), cached.Evaluate(cond, rec))

	stats := cached.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits, "evaluation after precompile should hit the cache")
}

func TestConditionMatcher_CacheMissFallsThrough(t *testing.T) {
	m := NewConditionMatcher(DefaultMatcherOptions())
	rec := &record.Record{Metadata: map[string]string{"k": "abc123"}}

	cond := MetadataMatch("k", `\d+`)
	assert.True(t, m.Evaluate(cond, rec))

	stats := m.CacheStats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)

	// Second evaluation should now hit the cache.
	assert.True(t, m.Evaluate(cond, rec))
	stats = m.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestConditionMatcher_NilRecord(t *testing.T) {
	m := NewConditionMatcher(DefaultMatcherOptions())
	assert.False(t, m.Evaluate(RecordType("event"), nil))
	assert.False(t, m.Evaluate(MetadataExists("k"), nil))
	assert.True(t, m.Evaluate(Always, nil))
}
