package task

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/neuroseg/neuroseg/internal/segmentation"
	"github.com/neuroseg/neuroseg/internal/state"
	"github.com/neuroseg/neuroseg/internal/types"
)

// Retention is how long a terminal record is kept before the durable
// backend evicts it.
const Retention = 24 * time.Hour

// Runner executes the blocking segmentation call on the worker pool and
// records progress and outcome in the state store. Each task id is
// dispatched at most once and never retried; a failed job needs a new
// create call. Failures never propagate as errors anywhere, they become
// terminal data on the record.
type Runner struct {
	store      state.Store
	segmenter  segmentation.Segmenter
	simulator  segmentation.Segmenter
	pool       *Pool
	studiesDir string
	outputDir  string
}

// NewRunner creates a runner backed by pool. segmenter handles real
// requests; requests with the simulate flag use a simulated run instead.
func NewRunner(store state.Store, segmenter segmentation.Segmenter, pool *Pool, studiesDir, outputDir string) *Runner {
	return &Runner{
		store:      store,
		segmenter:  segmenter,
		simulator:  &segmentation.SimulatedSegmenter{Delay: 2 * time.Second},
		pool:       pool,
		studiesDir: studiesDir,
		outputDir:  outputDir,
	}
}

// Dispatch schedules the segmentation run for taskID and returns without
// waiting. If the pool is saturated the task is marked failed immediately
// rather than silently dropped.
func (r *Runner) Dispatch(taskID string, req types.SegmentationRequest) {
	err := r.pool.Submit(func() {
		r.run(context.Background(), taskID, req)
	})
	if err != nil {
		log.Printf("[task %s] dispatch rejected: %v", taskID, err)
		r.markFailed(context.Background(), taskID, err, "")
	}
}

func (r *Runner) run(ctx context.Context, taskID string, req types.SegmentationRequest) {
	defer func() {
		if rec := recover(); rec != nil {
			r.markFailed(ctx, taskID, fmt.Errorf("panic: %v", rec), string(debug.Stack()))
		}
	}()

	now := time.Now()
	r.put(ctx, taskID, map[string]string{
		fieldStatus:    string(types.TaskProcessing),
		fieldStartedAt: encodeTime(now),
		fieldProgress:  "Starting segmentation...",
	})

	inputs, err := segmentation.ResolveInputs(r.studiesDir, req.StudyCode)
	if err != nil {
		r.markFailed(ctx, taskID, err, "")
		return
	}

	r.put(ctx, taskID, map[string]string{
		fieldProgress: "Initializing segmentation model...",
	})

	outputFile := req.OutputPath
	if outputFile == "" {
		outputFile = filepath.Join(r.outputDir, fmt.Sprintf("segmentation_%s.nii.gz", taskID))
	}

	seg := r.segmenter
	if req.Simulate {
		seg = r.simulator
	}

	log.Printf("[task %s] starting inference", taskID)
	if err := seg.Segment(ctx, inputs, outputFile); err != nil {
		log.Printf("[task %s] inference failed: %v", taskID, err)
		r.markFailed(ctx, taskID, err, "")
		return
	}
	log.Printf("[task %s] inference completed", taskID)

	r.markCompleted(ctx, taskID, types.SegmentationResult{
		OutputFile: outputFile,
		InputFiles: inputs.Map(),
	})
}

// markCompleted writes the terminal completed state in a single field merge
// so no reader can observe a result without its status.
func (r *Runner) markCompleted(ctx context.Context, taskID string, result types.SegmentationResult) {
	encoded, err := encodeResult(result)
	if err != nil {
		r.markFailed(ctx, taskID, err, "")
		return
	}
	r.put(ctx, taskID, map[string]string{
		fieldStatus:      string(types.TaskCompleted),
		fieldCompletedAt: encodeTime(time.Now()),
		fieldResult:      encoded,
		fieldProgress:    "Segmentation complete!",
	})
	r.expire(ctx, taskID)
}

// markFailed writes the terminal failed state in a single field merge.
// trace may carry a stack for panics; otherwise the error text stands in.
func (r *Runner) markFailed(ctx context.Context, taskID string, cause error, trace string) {
	if trace == "" {
		trace = cause.Error()
	}
	r.put(ctx, taskID, map[string]string{
		fieldStatus:      string(types.TaskFailed),
		fieldCompletedAt: encodeTime(time.Now()),
		fieldError:       cause.Error(),
		fieldErrorTrace:  trace,
	})
	r.expire(ctx, taskID)
}

// put logs and continues on store failure: the runner is detached from any
// request, so there is nowhere to surface the error except the record
// itself.
func (r *Runner) put(ctx context.Context, taskID string, fields map[string]string) {
	if err := r.store.Put(ctx, taskID, fields); err != nil {
		log.Printf("[task %s] store update failed: %v", taskID, err)
	}
}

func (r *Runner) expire(ctx context.Context, taskID string) {
	if err := r.store.Expire(ctx, taskID, Retention); err != nil {
		log.Printf("[task %s] expire failed: %v", taskID, err)
	}
}
