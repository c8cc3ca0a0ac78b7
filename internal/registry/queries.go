package registry

// ServiceByID returns a copy of the registered service, if any.
func (s *Store) ServiceByID(serviceID string) (RegisteredService, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[serviceID]
	if !ok {
		return RegisteredService{}, false
	}
	return *svc, true
}

// ServicesByName returns copies of every service registered under name,
// in no particular order.
func (s *Store) ServicesByName(name string) []RegisteredService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RegisteredService
	for _, svc := range s.services {
		if svc.ServiceName == name {
			out = append(out, *svc)
		}
	}
	return out
}

// ServicesByType returns copies of every service of serviceType.
func (s *Store) ServicesByType(serviceType string) []RegisteredService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RegisteredService
	for _, svc := range s.services {
		if svc.ServiceType == serviceType {
			out = append(out, *svc)
		}
	}
	return out
}

// ServicesByGroup returns copies of every service registered with GroupID.
func (s *Store) ServicesByGroup(groupID string) []RegisteredService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RegisteredService
	for _, svc := range s.services {
		if svc.GroupID == groupID {
			out = append(out, *svc)
		}
	}
	return out
}

// PipelineByID returns a copy of the pipeline, if any.
func (s *Store) PipelineByID(pipelineID string) (Pipeline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pipelines[pipelineID]
	if !ok {
		return Pipeline{}, false
	}
	return *p, true
}

// CommittedOffset returns the last committed offset for (sourceID, partition).
func (s *Store) CommittedOffset(sourceID string, partition uint32) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	off, ok := s.sourceOffsets[sourcePartition{SourceID: sourceID, Partition: partition}]
	return off, ok
}

// WatermarkFor returns the latest watermark for (sourceID, partition).
func (s *Store) WatermarkFor(sourceID string, partition uint32) (Watermark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wm, ok := s.watermarks[sourcePartition{SourceID: sourceID, Partition: partition}]
	return wm, ok
}

// LatestCheckpoint returns the most recently saved checkpoint for serviceID.
func (s *Store) LatestCheckpoint(serviceID string) (Checkpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.latestCkpt[serviceID]
	if !ok {
		return Checkpoint{}, false
	}
	ck, ok := s.checkpoints[serviceCheckpointKey{ServiceID: serviceID, CheckpointID: id}]
	if !ok {
		return Checkpoint{}, false
	}
	return *ck, true
}

// CheckpointByID returns a specific checkpoint by (serviceID, checkpointID).
func (s *Store) CheckpointByID(serviceID, checkpointID string) (Checkpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ck, ok := s.checkpoints[serviceCheckpointKey{ServiceID: serviceID, CheckpointID: checkpointID}]
	if !ok {
		return Checkpoint{}, false
	}
	return *ck, true
}

// Group returns a copy of the consumer group, if it exists. Members,
// Assignments, and each assignment's partition slice are copied so callers
// cannot mutate store state.
func (s *Store) Group(groupID string) (ConsumerGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return ConsumerGroup{}, false
	}
	out := ConsumerGroup{
		GroupID:     g.GroupID,
		Generation:  g.Generation,
		Members:     make(map[string]string, len(g.Members)),
		Assignments: make(map[string][]uint32, len(g.Assignments)),
	}
	for k, v := range g.Members {
		out.Members[k] = v
	}
	for k, v := range g.Assignments {
		parts := make([]uint32, len(v))
		copy(parts, v)
		out.Assignments[k] = parts
	}
	return out, true
}

// GroupOffset returns the committed offset for (groupID, sourceID, partition).
func (s *Store) GroupOffset(groupID, sourceID string, partition uint32) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	off, ok := s.groupOffsets[groupSourcePartition{GroupID: groupID, SourceID: sourceID, Partition: partition}]
	return off, ok
}

// AllServices returns copies of every registered service.
func (s *Store) AllServices() []RegisteredService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RegisteredService, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, *svc)
	}
	return out
}
