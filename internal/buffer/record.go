package buffer

import (
	"time"

	"github.com/flowmesh/etl-router/internal/record"
)

// BufferedRecord is the envelope a Record is wrapped in once it enters a
// stage buffer. It is created on ingest, mutated only to bump RetryCount on
// re-enqueue (ReturnToBuffer), and discarded when drained by GetBatch.
type BufferedRecord struct {
	Record        record.Record
	SourceID      string
	PipelineID    string
	TargetStageID string
	BufferedAt    time.Time
	RetryCount    uint32
}

// NewBufferedRecord wraps rec for admission into stageID, tagging it with
// its originating source and pipeline so credit accounting and re-enqueue
// bookkeeping can find their way back.
func NewBufferedRecord(rec record.Record, sourceID, pipelineID, stageID string) *BufferedRecord {
	return &BufferedRecord{
		Record:        rec,
		SourceID:      sourceID,
		PipelineID:    pipelineID,
		TargetStageID: stageID,
		BufferedAt:    time.Now(),
	}
}
