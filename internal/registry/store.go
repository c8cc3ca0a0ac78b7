// Package registry maintains the authoritative set of RegisteredService
// entries and the derived aggregates (pipelines, offsets, watermarks,
// checkpoints, consumer groups) built by reducing the closed RouterCommand
// set over time.
//
// Store.Apply is a pure, deterministic reduction: replaying the same
// command sequence from the same initial state always yields identical
// state. Every apply that cannot legally change state (stale generation,
// regressing offset/watermark, unknown-service RenewLease) is absorbed as
// a no-op rather than propagated as an error — the reducer itself is
// total.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flowmesh/etl-router/internal/checkpoint"
	"github.com/flowmesh/etl-router/pkg/metrics"
)

// checkpointSaveTimeout bounds how long a single SaveServiceCheckpoint
// application waits on the external checkpoint store before giving up.
const checkpointSaveTimeout = 5 * time.Second

// DefaultLeaseTTL is how long a service's lease is valid after
// RegisterService or RenewLease, absent an explicit configuration.
const DefaultLeaseTTL = 30 * time.Second

// Store is the registry reducer. The zero value is not usable; construct
// with NewStore.
type Store struct {
	leaseTTL time.Duration
	logger   *slog.Logger
	m        *metrics.RegistryMetrics

	mu            sync.RWMutex
	services      map[string]*RegisteredService
	pipelines     map[string]*Pipeline
	sourceOffsets map[sourcePartition]uint64
	watermarks    map[sourcePartition]Watermark
	checkpoints   map[serviceCheckpointKey]*Checkpoint
	latestCkpt    map[string]string // serviceID -> most recently saved CheckpointID
	groups        map[string]*ConsumerGroup
	groupOffsets  map[groupSourcePartition]uint64

	now func() time.Time

	ckptMu sync.RWMutex
	ckpt   checkpoint.Store
}

// NewStore creates an empty Store. leaseTTL of zero uses DefaultLeaseTTL.
// logger and m may be nil.
func NewStore(leaseTTL time.Duration, logger *slog.Logger, m *metrics.RegistryMetrics) *Store {
	if leaseTTL <= 0 {
		leaseTTL = DefaultLeaseTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		leaseTTL:      leaseTTL,
		logger:        logger,
		m:             m,
		services:      make(map[string]*RegisteredService),
		pipelines:     make(map[string]*Pipeline),
		sourceOffsets: make(map[sourcePartition]uint64),
		watermarks:    make(map[sourcePartition]Watermark),
		checkpoints:   make(map[serviceCheckpointKey]*Checkpoint),
		latestCkpt:    make(map[string]string),
		groups:        make(map[string]*ConsumerGroup),
		groupOffsets:  make(map[groupSourcePartition]uint64),
		now:           time.Now,
	}
}

// SetCheckpointStore attaches the external checkpoint collaborator that
// SaveServiceCheckpoint applications persist to. A nil store (the default)
// makes checkpoint persistence a no-op beyond the in-memory record kept by
// the reducer itself. Safe to call concurrently with Apply.
func (s *Store) SetCheckpointStore(ckpt checkpoint.Store) {
	s.ckptMu.Lock()
	s.ckpt = ckpt
	s.ckptMu.Unlock()
}

func (s *Store) checkpointStore() checkpoint.Store {
	s.ckptMu.RLock()
	defer s.ckptMu.RUnlock()
	return s.ckpt
}

// Apply reduces cmd over the store's state and reports whether state
// actually changed (false for every absorbed no-op: stale generation,
// offset/watermark regression, RenewLease on an unknown service, and so
// on). Apply never returns an error — every rejection kind is absorbed
// locally so the reducer stays total.
//
// A SaveServiceCheckpoint that changes state is additionally persisted to
// the attached checkpoint store, if any, after the reducer's own lock is
// released — the in-memory state transition never waits on that external
// call. A failed persist is logged and otherwise absorbed: the in-memory
// checkpoint record, not the external store, is what Apply's return value
// reflects.
func (s *Store) Apply(cmd Command) bool {
	s.mu.Lock()
	changed := s.apply(cmd)
	if s.m != nil {
		s.m.CommandsApplied.WithLabelValues(commandName(cmd)).Inc()
	}
	s.mu.Unlock()

	if changed {
		if sc, ok := cmd.(SaveServiceCheckpoint); ok {
			s.persistCheckpoint(sc)
		}
	}
	return changed
}

func (s *Store) persistCheckpoint(c SaveServiceCheckpoint) {
	ckpt := s.checkpointStore()
	if ckpt == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), checkpointSaveTimeout)
	defer cancel()
	rec := checkpoint.Record{
		ServiceID:     c.ServiceID,
		CheckpointID:  c.CheckpointID,
		Data:          c.Data,
		SourceOffsets: c.SourceOffsets,
		SavedAt:       s.now(),
	}
	if err := ckpt.Save(ctx, rec); err != nil {
		s.logger.Warn("checkpoint persist failed",
			"service_id", c.ServiceID, "checkpoint_id", c.CheckpointID, "error", err)
	}
}

func (s *Store) apply(cmd Command) bool {
	switch c := cmd.(type) {
	case Noop:
		return false

	case RegisterService:
		svc, existed := s.services[c.ServiceID]
		if !existed {
			svc = &RegisteredService{Health: HealthUnknown}
		}
		svc.ServiceID = c.ServiceID
		svc.ServiceName = c.ServiceName
		svc.ServiceType = c.ServiceType
		svc.Endpoint = c.Endpoint
		svc.Labels = c.Labels
		svc.GroupID = c.GroupID
		svc.leaseUntil = s.now().Add(s.leaseTTL)
		if !existed {
			svc.Health = HealthUnknown
		}
		s.services[c.ServiceID] = svc
		s.refreshServiceGauge()
		return true

	case DeregisterService:
		if _, ok := s.services[c.ServiceID]; !ok {
			return false
		}
		delete(s.services, c.ServiceID)
		for _, g := range s.groups {
			delete(g.Members, c.ServiceID)
			delete(g.Assignments, c.ServiceID)
		}
		s.refreshServiceGauge()
		return true

	case RenewLease:
		svc, ok := s.services[c.ServiceID]
		if !ok {
			return false
		}
		svc.leaseUntil = s.now().Add(s.leaseTTL)
		return true

	case UpdateServiceHealth:
		svc, ok := s.services[c.ServiceID]
		if !ok {
			return false
		}
		svc.Health = ParseHealth(c.Health)
		s.refreshServiceGauge()
		return true

	case CreatePipeline:
		s.pipelines[c.PipelineID] = &Pipeline{
			PipelineID: c.PipelineID, Name: c.Name, Config: c.Config, Enabled: true,
		}
		return true

	case UpdatePipeline:
		p, ok := s.pipelines[c.PipelineID]
		if !ok {
			return false
		}
		p.Config = c.Config
		return true

	case DeletePipeline:
		if _, ok := s.pipelines[c.PipelineID]; !ok {
			return false
		}
		delete(s.pipelines, c.PipelineID)
		return true

	case EnablePipeline:
		p, ok := s.pipelines[c.PipelineID]
		if !ok {
			return false
		}
		if p.Enabled {
			return false
		}
		p.Enabled = true
		return true

	case DisablePipeline:
		p, ok := s.pipelines[c.PipelineID]
		if !ok {
			return false
		}
		if !p.Enabled {
			return false
		}
		p.Enabled = false
		return true

	case CommitSourceOffset:
		key := sourcePartition{SourceID: c.SourceID, Partition: c.Partition}
		current, ok := s.sourceOffsets[key]
		if ok && c.Offset <= current {
			s.staleRejection()
			return false
		}
		s.sourceOffsets[key] = c.Offset
		return true

	case AdvanceWatermark:
		key := sourcePartition{SourceID: c.SourceID, Partition: c.Partition}
		current, ok := s.watermarks[key]
		if ok && (c.Position < current.Position ||
			(c.Position == current.Position && c.EventTime.Before(current.EventTime))) {
			s.staleRejection()
			return false
		}
		s.watermarks[key] = Watermark{Position: c.Position, EventTime: c.EventTime}
		return true

	case SaveServiceCheckpoint:
		key := serviceCheckpointKey{ServiceID: c.ServiceID, CheckpointID: c.CheckpointID}
		s.checkpoints[key] = &Checkpoint{
			ServiceID: c.ServiceID, CheckpointID: c.CheckpointID,
			Data: c.Data, SourceOffsets: c.SourceOffsets,
		}
		s.latestCkpt[c.ServiceID] = c.CheckpointID
		return true

	case JoinGroup:
		g := s.groupFor(c.GroupID)
		g.Members[c.ServiceID] = c.StageID
		return true

	case LeaveGroup:
		g, ok := s.groups[c.GroupID]
		if !ok {
			return false
		}
		if _, ok := g.Members[c.ServiceID]; !ok {
			return false
		}
		delete(g.Members, c.ServiceID)
		delete(g.Assignments, c.ServiceID)
		return true

	case AssignPartitions:
		g := s.groupFor(c.GroupID)
		if c.Generation < g.Generation {
			s.staleRejection()
			return false
		}
		g.Assignments = c.Assignments
		g.Generation = c.Generation
		return true

	case CommitGroupOffset:
		key := groupSourcePartition{GroupID: c.GroupID, SourceID: c.SourceID, Partition: c.Partition}
		current, ok := s.groupOffsets[key]
		if ok && c.Offset <= current {
			s.staleRejection()
			return false
		}
		s.groupOffsets[key] = c.Offset
		return true

	default:
		return false
	}
}

func (s *Store) groupFor(groupID string) *ConsumerGroup {
	g, ok := s.groups[groupID]
	if !ok {
		g = &ConsumerGroup{
			GroupID:     groupID,
			Members:     make(map[string]string),
			Assignments: make(map[string][]uint32),
		}
		s.groups[groupID] = g
	}
	return g
}

func (s *Store) staleRejection() {
	if s.m != nil {
		s.m.StaleRejections.Inc()
	}
}

// refreshServiceGauge recomputes the services-by-health gauge. Caller
// holds s.mu.
func (s *Store) refreshServiceGauge() {
	if s.m == nil {
		return
	}
	counts := map[Health]int{}
	for _, svc := range s.services {
		counts[svc.Health]++
	}
	for _, h := range []Health{HealthUnknown, HealthHealthy, HealthUnhealthy} {
		s.m.ServicesTotal.WithLabelValues(h.String()).Set(float64(counts[h]))
	}
}

func commandName(cmd Command) string {
	switch cmd.(type) {
	case Noop:
		return "noop"
	case RegisterService:
		return "register_service"
	case DeregisterService:
		return "deregister_service"
	case RenewLease:
		return "renew_lease"
	case UpdateServiceHealth:
		return "update_service_health"
	case CreatePipeline:
		return "create_pipeline"
	case UpdatePipeline:
		return "update_pipeline"
	case DeletePipeline:
		return "delete_pipeline"
	case EnablePipeline:
		return "enable_pipeline"
	case DisablePipeline:
		return "disable_pipeline"
	case CommitSourceOffset:
		return "commit_source_offset"
	case AdvanceWatermark:
		return "advance_watermark"
	case SaveServiceCheckpoint:
		return "save_service_checkpoint"
	case JoinGroup:
		return "join_group"
	case LeaveGroup:
		return "leave_group"
	case AssignPartitions:
		return "assign_partitions"
	case CommitGroupOffset:
		return "commit_group_offset"
	default:
		return "unknown"
	}
}
