package registry

import "time"

// RegisteredService is the registry's authoritative record of a worker.
// Callers receive value copies — the registry never hands out a pointer
// into its own state.
type RegisteredService struct {
	ServiceID   string
	ServiceName string
	ServiceType string // source | transform | lookup | sink
	Endpoint    string
	Labels      map[string]string
	GroupID     string // empty when the service joined no group at registration
	Health      Health
	leaseUntil  time.Time
}

// Pipeline is a named pipeline configuration. Config is an opaque blob —
// the registry never interprets it.
type Pipeline struct {
	PipelineID string
	Name       string
	Config     []byte
	Enabled    bool
}

// Checkpoint is a worker-submitted recovery point, keyed by
// (ServiceID, CheckpointID).
type Checkpoint struct {
	ServiceID     string
	CheckpointID  string
	Data          []byte
	SourceOffsets map[string]uint64
}

// Watermark is a per-(source,partition) position plus the event time it
// corresponds to. No earlier records are expected past this point.
type Watermark struct {
	Position  uint64
	EventTime Timestamp
}

// ConsumerGroup tracks cooperative consumption of a source's partitions.
type ConsumerGroup struct {
	GroupID     string
	Members     map[string]string   // serviceID -> preferred stage id
	Assignments map[string][]uint32 // serviceID -> assigned partitions
	Generation  uint64
}

type sourcePartition struct {
	SourceID  string
	Partition uint32
}

type groupSourcePartition struct {
	GroupID   string
	SourceID  string
	Partition uint32
}

type serviceCheckpointKey struct {
	ServiceID    string
	CheckpointID string
}
