package buffer

// Config holds the capacity limits and backpressure threshold a
// BufferManager enforces. Zero-value fields are filled in from
// DefaultConfig by NewManager.
type Config struct {
	// MaxTotalRecords bounds total_records across every stage buffer.
	MaxTotalRecords int

	// MaxPerStage bounds the length of any single stage buffer.
	MaxPerStage int

	// MaxPerSource bounds the accounted records attributed to any one
	// source, for credit/backpressure purposes.
	MaxPerSource int

	// BackpressureThreshold is the utilization ratio (0..1) above which
	// ShouldBackpressure reports true.
	BackpressureThreshold float64
}

// DefaultConfig returns the router's built-in default capacity limits.
func DefaultConfig() Config {
	return Config{
		MaxTotalRecords:       100_000,
		MaxPerStage:           10_000,
		MaxPerSource:          5_000,
		BackpressureThreshold: 0.8,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxTotalRecords <= 0 {
		c.MaxTotalRecords = d.MaxTotalRecords
	}
	if c.MaxPerStage <= 0 {
		c.MaxPerStage = d.MaxPerStage
	}
	if c.MaxPerSource <= 0 {
		c.MaxPerSource = d.MaxPerSource
	}
	if c.BackpressureThreshold <= 0 {
		c.BackpressureThreshold = d.BackpressureThreshold
	}
	return c
}
