// Package buffer implements the bounded, multi-tenant queue fabric that
// holds records between pipeline stages.
//
// A single compound mutex covers the stage-buffer map and the total_records
// counter together, so admission, enqueue, and the counter bump happen as
// one linearizable step: no caller ever observes the counter incremented
// without the record enqueued, or the reverse. Source-level accounting
// (used only for credits/backpressure, never drained) is kept under its
// own lock since it is independent bookkeeping, not part of the stage
// admission invariant.
package buffer

import (
	"log/slog"
	"sync"

	"github.com/flowmesh/etl-router/pkg/metrics"
)

// Manager is the bounded, multi-tenant queue fabric. The zero value is not
// usable; construct with NewManager.
type Manager struct {
	cfg    Config
	logger *slog.Logger
	m      *metrics.BufferMetrics

	mu           sync.Mutex
	stageBuffers map[string]*stageBuffer
	total        int

	sourceMu     sync.Mutex
	sourceCounts map[string]int
}

// NewManager creates a Manager. cfg is filled in with DefaultConfig for any
// zero-valued field. logger and m may be nil.
func NewManager(cfg Config, logger *slog.Logger, m *metrics.BufferMetrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:          cfg.withDefaults(),
		logger:       logger,
		m:            m,
		stageBuffers: make(map[string]*stageBuffer),
		sourceCounts: make(map[string]int),
	}
}

func (mgr *Manager) stageFor(stageID string) *stageBuffer {
	buf, ok := mgr.stageBuffers[stageID]
	if !ok {
		buf = newStageBuffer(mgr.cfg.MaxPerStage)
		mgr.stageBuffers[stageID] = buf
	}
	return buf
}

// BufferForStage admits rec into stageID. It fails with ErrGlobalFull if
// total_records is already at MaxTotalRecords, or ErrStageFull if the
// stage buffer is already at MaxPerStage — whichever limit is hit first;
// the stage check only runs once the global check has passed.
func (mgr *Manager) BufferForStage(stageID string, rec *BufferedRecord) error {
	mgr.mu.Lock()
	if mgr.total >= mgr.cfg.MaxTotalRecords {
		mgr.mu.Unlock()
		mgr.reject("global")
		return ErrGlobalFull
	}

	buf := mgr.stageFor(stageID)
	if !buf.push(rec) {
		mgr.mu.Unlock()
		mgr.reject("stage")
		return ErrStageFull
	}
	mgr.total++
	mgr.observeAdmission(stageID, 1)
	mgr.mu.Unlock()

	mgr.incrementSource(rec.SourceID)
	return nil
}

// BufferBatchForStage admits as many of recs as both the global and stage
// limits allow, preserving input order, and reports the count admitted. It
// only fails (with ErrGlobalFull) when there is no global room at all;
// partial admission is never reported as an error.
func (mgr *Manager) BufferBatchForStage(stageID string, recs []*BufferedRecord) (int, error) {
	mgr.mu.Lock()
	available := mgr.cfg.MaxTotalRecords - mgr.total
	if available <= 0 {
		mgr.mu.Unlock()
		mgr.reject("global")
		return 0, ErrGlobalFull
	}

	buf := mgr.stageFor(stageID)
	admitted := 0
	for _, rec := range recs {
		if admitted >= available {
			break
		}
		if !buf.push(rec) {
			break
		}
		admitted++
	}
	mgr.total += admitted
	if admitted > 0 {
		mgr.observeAdmission(stageID, admitted)
	}
	mgr.mu.Unlock()

	for i := 0; i < admitted; i++ {
		mgr.incrementSource(recs[i].SourceID)
	}
	if admitted < len(recs) {
		mgr.reject("stage")
	}
	return admitted, nil
}

// GetBatch returns up to n records from the head of stageID's buffer,
// FIFO. An unknown or empty stage yields an empty (nil) slice, not an
// error.
func (mgr *Manager) GetBatch(stageID string, n int) []*BufferedRecord {
	mgr.mu.Lock()
	buf, ok := mgr.stageBuffers[stageID]
	if !ok {
		mgr.mu.Unlock()
		return nil
	}

	batch := buf.popBatch(n)
	mgr.total = saturatingSub(mgr.total, len(batch))
	mgr.observeDrain(stageID, len(batch))
	mgr.mu.Unlock()

	for _, rec := range batch {
		mgr.decrementSource(rec.SourceID)
	}
	if mgr.m != nil {
		mgr.m.Drained.Add(float64(len(batch)))
	}
	return batch
}

// ReturnToBuffer re-enqueues recs at the tail of stageID's buffer after
// bumping each one's RetryCount. Records that no longer fit are dropped
// with a warning rather than propagated as an error — new work is never
// starved by repeatedly failing retries.
func (mgr *Manager) ReturnToBuffer(stageID string, recs []*BufferedRecord) {
	mgr.mu.Lock()
	buf := mgr.stageFor(stageID)

	admitted := make([]*BufferedRecord, 0, len(recs))
	dropped := 0
	for _, rec := range recs {
		rec.RetryCount++
		if mgr.total < mgr.cfg.MaxTotalRecords && buf.push(rec) {
			mgr.total++
			admitted = append(admitted, rec)
		} else {
			dropped++
		}
	}
	if len(admitted) > 0 {
		mgr.observeAdmission(stageID, len(admitted))
	}
	mgr.mu.Unlock()

	for _, rec := range admitted {
		mgr.incrementSource(rec.SourceID)
	}

	if dropped > 0 {
		mgr.logger.Warn("buffer: dropped retried records, stage or global limit reached",
			"stage_id", stageID, "dropped", dropped)
		if mgr.m != nil {
			mgr.m.ReturnedDropped.Add(float64(dropped))
		}
	}
}

// ShouldBackpressure reports whether sourceID should be asked to pause:
// true if global utilization or the source's own utilization exceeds the
// configured threshold.
func (mgr *Manager) ShouldBackpressure(sourceID string) bool {
	mgr.mu.Lock()
	globalUtil := float64(mgr.total) / float64(mgr.cfg.MaxTotalRecords)
	mgr.mu.Unlock()

	if globalUtil > mgr.cfg.BackpressureThreshold {
		return true
	}

	mgr.sourceMu.Lock()
	used := mgr.sourceCounts[sourceID]
	mgr.sourceMu.Unlock()

	sourceUtil := float64(used) / float64(mgr.cfg.MaxPerSource)
	return sourceUtil > mgr.cfg.BackpressureThreshold
}

// AvailableCredits returns how many more records sourceID may submit
// before hitting either the global or the per-source limit.
func (mgr *Manager) AvailableCredits(sourceID string) uint64 {
	mgr.mu.Lock()
	globalAvailable := saturatingSub(mgr.cfg.MaxTotalRecords, mgr.total)
	mgr.mu.Unlock()

	mgr.sourceMu.Lock()
	used := mgr.sourceCounts[sourceID]
	mgr.sourceMu.Unlock()

	sourceAvailable := saturatingSub(mgr.cfg.MaxPerSource, used)

	if globalAvailable < sourceAvailable {
		return uint64(globalAvailable)
	}
	return uint64(sourceAvailable)
}

// GetStageBufferSize returns the current length of stageID's buffer, or 0
// if the stage is unknown.
func (mgr *Manager) GetStageBufferSize(stageID string) int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if buf, ok := mgr.stageBuffers[stageID]; ok {
		return buf.len()
	}
	return 0
}

// GetStageUtilization returns stageID's fill ratio (0..1), or 0 if unknown.
func (mgr *Manager) GetStageUtilization(stageID string) float64 {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if buf, ok := mgr.stageBuffers[stageID]; ok {
		return buf.utilization()
	}
	return 0
}

// GetGlobalUtilization returns total_records / MaxTotalRecords.
func (mgr *Manager) GetGlobalUtilization() float64 {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return float64(mgr.total) / float64(mgr.cfg.MaxTotalRecords)
}

// GetTotalBuffered returns total_records.
func (mgr *Manager) GetTotalBuffered() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.total
}

// GetStagesWithData lists the ids of every stage buffer that currently
// holds at least one record.
func (mgr *Manager) GetStagesWithData() []string {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	stages := make([]string, 0, len(mgr.stageBuffers))
	for id, buf := range mgr.stageBuffers {
		if buf.len() > 0 {
			stages = append(stages, id)
		}
	}
	return stages
}

func (mgr *Manager) incrementSource(sourceID string) {
	if sourceID == "" {
		return
	}
	mgr.sourceMu.Lock()
	mgr.sourceCounts[sourceID]++
	mgr.sourceMu.Unlock()
}

func (mgr *Manager) decrementSource(sourceID string) {
	if sourceID == "" {
		return
	}
	mgr.sourceMu.Lock()
	mgr.sourceCounts[sourceID] = saturatingSub(mgr.sourceCounts[sourceID], 1)
	mgr.sourceMu.Unlock()
}

// observeAdmission updates admission-path metrics for n newly-admitted
// records. Caller holds mgr.mu.
func (mgr *Manager) observeAdmission(stageID string, n int) {
	if mgr.m == nil {
		return
	}
	mgr.m.Admitted.Add(float64(n))
	mgr.m.TotalRecords.Set(float64(mgr.total))
	mgr.m.GlobalUtilization.Set(float64(mgr.total) / float64(mgr.cfg.MaxTotalRecords))
	if buf, ok := mgr.stageBuffers[stageID]; ok {
		mgr.m.StageDepth.WithLabelValues(stageID).Set(float64(buf.len()))
	}
}

// observeDrain updates drain-path gauges. Caller holds mgr.mu.
func (mgr *Manager) observeDrain(stageID string, n int) {
	if mgr.m == nil || n == 0 {
		return
	}
	mgr.m.TotalRecords.Set(float64(mgr.total))
	mgr.m.GlobalUtilization.Set(float64(mgr.total) / float64(mgr.cfg.MaxTotalRecords))
	if buf, ok := mgr.stageBuffers[stageID]; ok {
		mgr.m.StageDepth.WithLabelValues(stageID).Set(float64(buf.len()))
	}
}

func (mgr *Manager) reject(reason string) {
	if mgr.m != nil {
		mgr.m.Rejected.WithLabelValues(reason).Inc()
	}
}

func saturatingSub(a, b int) int {
	if b >= a {
		return 0
	}
	return a - b
}
