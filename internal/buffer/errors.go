package buffer

import "errors"

// ErrGlobalFull is returned by BufferForStage/BufferBatchForStage when the
// global total_records limit has already been reached. Callers should
// treat this as a signal to apply backpressure upstream.
var ErrGlobalFull = errors.New("buffer: global capacity exceeded")

// ErrStageFull is returned by BufferForStage when the target stage buffer
// is already at max_per_stage, even though global capacity remains.
var ErrStageFull = errors.New("buffer: stage capacity exceeded")
