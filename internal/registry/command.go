package registry

// Command is the closed set of state-mutating operations the registry
// reducer accepts. Every concrete type below implements it; the set is
// intentionally closed — new command kinds are added here, not via open
// interfaces elsewhere in the codebase.
type Command interface {
	isCommand()
}

// Noop applies no state change. It exists so the consensus log can carry
// a heartbeat entry without the reducer special-casing a nil command.
type Noop struct{}

// RegisterService upserts a service by ServiceID. Health starts Unknown.
type RegisterService struct {
	ServiceID   string
	ServiceName string
	ServiceType string
	Endpoint    string
	Labels      map[string]string
	GroupID     string // empty means "no group"
}

// DeregisterService removes a service and drops it from any group it had
// joined.
type DeregisterService struct {
	ServiceID string
}

// RenewLease refreshes a service's lease deadline. No effect if the
// service is unknown.
type RenewLease struct {
	ServiceID string
}

// UpdateServiceHealth sets a service's health. Health is a raw wire value;
// anything ParseHealth doesn't recognize coerces to HealthUnknown.
type UpdateServiceHealth struct {
	ServiceID string
	Health    string
}

// CreatePipeline adds a pipeline. Config is an opaque blob.
type CreatePipeline struct {
	PipelineID string
	Name       string
	Config     []byte
}

// UpdatePipeline replaces a pipeline's config blob.
type UpdatePipeline struct {
	PipelineID string
	Config     []byte
}

// DeletePipeline removes a pipeline entirely.
type DeletePipeline struct {
	PipelineID string
}

// EnablePipeline / DisablePipeline toggle a pipeline's Enabled flag.
type EnablePipeline struct{ PipelineID string }
type DisablePipeline struct{ PipelineID string }

// CommitSourceOffset records a committed offset for (SourceID, Partition).
// Applied only if Offset is monotonically non-decreasing versus the
// stored value; a regression is rejected without error (replay-safe).
type CommitSourceOffset struct {
	SourceID  string
	Partition uint32
	Offset    uint64
}

// AdvanceWatermark records a watermark for (SourceID, Partition). Accepted
// only if (Position, EventTime) is non-decreasing versus the stored value.
type AdvanceWatermark struct {
	SourceID  string
	Partition uint32
	Position  uint64
	EventTime Timestamp
}

// SaveServiceCheckpoint stores a checkpoint keyed by
// (ServiceID, CheckpointID); it becomes the newest checkpoint on record
// for ServiceID.
type SaveServiceCheckpoint struct {
	ServiceID     string
	CheckpointID  string
	Data          []byte
	SourceOffsets map[string]uint64
}

// JoinGroup adds ServiceID to GroupID with a preferred stage.
type JoinGroup struct {
	ServiceID string
	GroupID   string
	StageID   string
}

// LeaveGroup removes ServiceID's membership in GroupID.
type LeaveGroup struct {
	ServiceID string
	GroupID   string
}

// AssignPartitions replaces a group's full partition assignment map, but
// only if Generation is >= the group's current generation; otherwise the
// command is a no-op.
type AssignPartitions struct {
	GroupID     string
	Assignments map[string][]uint32 // serviceID -> partitions
	Generation  uint64
}

// CommitGroupOffset writes a per-(group, source, partition) offset.
type CommitGroupOffset struct {
	GroupID   string
	SourceID  string
	Partition uint32
	Offset    uint64
}

func (Noop) isCommand()                  {}
func (RegisterService) isCommand()       {}
func (DeregisterService) isCommand()     {}
func (RenewLease) isCommand()            {}
func (UpdateServiceHealth) isCommand()   {}
func (CreatePipeline) isCommand()        {}
func (UpdatePipeline) isCommand()        {}
func (DeletePipeline) isCommand()        {}
func (EnablePipeline) isCommand()        {}
func (DisablePipeline) isCommand()       {}
func (CommitSourceOffset) isCommand()    {}
func (AdvanceWatermark) isCommand()      {}
func (SaveServiceCheckpoint) isCommand() {}
func (JoinGroup) isCommand()             {}
func (LeaveGroup) isCommand()            {}
func (AssignPartitions) isCommand()      {}
func (CommitGroupOffset) isCommand()     {}
