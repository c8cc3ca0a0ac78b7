package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/etl-router/internal/record"
)

func rec(sourceID string) *BufferedRecord {
	return NewBufferedRecord(record.Record{RecordType: "event"}, sourceID, "pipe-1", "sink-a")
}

func TestManager_PushAndDrainFIFO(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 10, MaxPerStage: 5, MaxPerSource: 3, BackpressureThreshold: 0.8}, nil, nil)

	r1, r2, r3 := rec("src-1"), rec("src-1"), rec("src-1")
	require.NoError(t, mgr.BufferForStage("sink-a", r1))
	require.NoError(t, mgr.BufferForStage("sink-a", r2))
	require.NoError(t, mgr.BufferForStage("sink-a", r3))

	batch := mgr.GetBatch("sink-a", 10)
	require.Len(t, batch, 3)
	assert.Same(t, r1, batch[0])
	assert.Same(t, r2, batch[1])
	assert.Same(t, r3, batch[2])

	assert.Equal(t, 0, mgr.GetTotalBuffered())
}

func TestManager_GlobalCapacityExceeded(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 2, MaxPerStage: 10, MaxPerSource: 10, BackpressureThreshold: 0.8}, nil, nil)

	require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))
	require.NoError(t, mgr.BufferForStage("sink-b", rec("src-1")))

	err := mgr.BufferForStage("sink-a", rec("src-1"))
	assert.ErrorIs(t, err, ErrGlobalFull)
	assert.Equal(t, 2, mgr.GetTotalBuffered())
}

func TestManager_StageCapacityExceededEvenWithGlobalRoom(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 100, MaxPerStage: 1, MaxPerSource: 100, BackpressureThreshold: 0.8}, nil, nil)

	require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))
	err := mgr.BufferForStage("sink-a", rec("src-1"))
	assert.ErrorIs(t, err, ErrStageFull)

	// A different stage still has room.
	require.NoError(t, mgr.BufferForStage("sink-b", rec("src-1")))
}

func TestManager_BatchAdmitsPartially(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 100, MaxPerStage: 2, MaxPerSource: 100, BackpressureThreshold: 0.8}, nil, nil)

	batch := []*BufferedRecord{rec("src-1"), rec("src-1"), rec("src-1")}
	n, err := mgr.BufferBatchForStage("sink-a", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "only 2 fit under MaxPerStage=2")
	assert.Equal(t, 2, mgr.GetStageBufferSize("sink-a"))
}

func TestManager_BatchFailsOnlyWhenNoGlobalRoom(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 1, MaxPerStage: 10, MaxPerSource: 10, BackpressureThreshold: 0.8}, nil, nil)
	require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))

	n, err := mgr.BufferBatchForStage("sink-a", []*BufferedRecord{rec("src-1")})
	assert.ErrorIs(t, err, ErrGlobalFull)
	assert.Equal(t, 0, n)
}

func TestManager_GetBatchUnknownStageReturnsEmpty(t *testing.T) {
	mgr := NewManager(DefaultConfig(), nil, nil)
	batch := mgr.GetBatch("does-not-exist", 10)
	assert.Empty(t, batch)
}

func TestManager_ReturnToBufferBumpsRetryCountAndGoesToTail(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 100, MaxPerStage: 100, MaxPerSource: 100, BackpressureThreshold: 0.8}, nil, nil)

	newWork := rec("src-1")
	require.NoError(t, mgr.BufferForStage("sink-a", newWork))

	retried := rec("src-1")
	mgr.ReturnToBuffer("sink-a", []*BufferedRecord{retried})

	assert.Equal(t, uint32(1), retried.RetryCount)

	batch := mgr.GetBatch("sink-a", 10)
	require.Len(t, batch, 2)
	assert.Same(t, newWork, batch[0], "existing work keeps head position")
	assert.Same(t, retried, batch[1], "retried record re-enqueues at tail")
}

func TestManager_ReturnToBufferDropsWhatDoesNotFit(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 100, MaxPerStage: 1, MaxPerSource: 100, BackpressureThreshold: 0.8}, nil, nil)
	require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))

	mgr.ReturnToBuffer("sink-a", []*BufferedRecord{rec("src-1"), rec("src-1")})
	assert.Equal(t, 1, mgr.GetStageBufferSize("sink-a"), "buffer stays at capacity, excess dropped")
}

func TestManager_ShouldBackpressureGlobal(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 10, MaxPerStage: 10, MaxPerSource: 10, BackpressureThreshold: 0.5}, nil, nil)

	for i := 0; i < 6; i++ {
		require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))
	}
	assert.True(t, mgr.ShouldBackpressure("src-1"), "global utilization 0.6 > threshold 0.5")
}

func TestManager_ShouldBackpressureSourceLocal(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 1000, MaxPerStage: 1000, MaxPerSource: 5, BackpressureThreshold: 0.5}, nil, nil)

	for i := 0; i < 4; i++ {
		require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))
	}
	assert.True(t, mgr.ShouldBackpressure("src-1"), "source utilization 0.8 > threshold 0.5")
	assert.False(t, mgr.ShouldBackpressure("src-2"), "unrelated source unaffected")
}

func TestManager_AvailableCredits(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 10, MaxPerStage: 10, MaxPerSource: 3, BackpressureThreshold: 0.8}, nil, nil)

	require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))
	require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))

	// global available = 8, source available = 1
	assert.Equal(t, uint64(1), mgr.AvailableCredits("src-1"))
	assert.Equal(t, uint64(3), mgr.AvailableCredits("src-2"))
}

func TestManager_CreditsAndCountsSymmetricAcrossDrain(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 10, MaxPerStage: 10, MaxPerSource: 3, BackpressureThreshold: 0.8}, nil, nil)

	require.NoError(t, mgr.BufferForStage("sink-a", rec("src-1")))
	assert.Equal(t, uint64(2), mgr.AvailableCredits("src-1"))

	mgr.GetBatch("sink-a", 10)
	assert.Equal(t, uint64(3), mgr.AvailableCredits("src-1"), "credit returns after drain")
}

func TestManager_GetStagesWithData(t *testing.T) {
	mgr := NewManager(DefaultConfig(), nil, nil)
	require.NoError(t, mgr.BufferForStage("a", rec("src-1")))
	require.NoError(t, mgr.BufferForStage("b", rec("src-1")))
	mgr.GetBatch("b", 10)

	stages := mgr.GetStagesWithData()
	assert.ElementsMatch(t, []string{"a"}, stages)
}

func TestManager_ConcurrentPushersPreserveTotalInvariant(t *testing.T) {
	mgr := NewManager(Config{MaxTotalRecords: 10_000, MaxPerStage: 10_000, MaxPerSource: 10_000, BackpressureThreshold: 0.8}, nil, nil)

	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_ = mgr.BufferForStage("sink-a", rec("src-concurrent"))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, goroutines*perGoroutine, mgr.GetTotalBuffered())
	assert.Equal(t, goroutines*perGoroutine, mgr.GetStageBufferSize("sink-a"))
}
