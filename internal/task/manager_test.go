package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/neuroseg/neuroseg/internal/segmentation"
	"github.com/neuroseg/neuroseg/internal/state"
	"github.com/neuroseg/neuroseg/internal/types"
)

// stubSegmenter lets tests control the outcome and timing of the blocking
// segmentation call.
type stubSegmenter struct {
	err   error
	block chan struct{}
}

func (s *stubSegmenter) Segment(ctx context.Context, _ segmentation.Inputs, outputFile string) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(outputFile, nil, 0o644)
}

func makeStudy(t *testing.T, studiesDir, code string) {
	t.Helper()
	dir := filepath.Join(studiesDir, code)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir study: %v", err)
	}
	for _, suffix := range types.RequiredSuffixes {
		if err := os.WriteFile(filepath.Join(dir, code+"_"+suffix), nil, 0o644); err != nil {
			t.Fatalf("write modality: %v", err)
		}
	}
}

func newTestManager(t *testing.T, seg segmentation.Segmenter) (*Manager, state.Store) {
	t.Helper()
	store := state.NewInMemoryStore()
	pool := NewPool(2, 16)
	t.Cleanup(pool.StopWait)

	studiesDir := t.TempDir()
	makeStudy(t, studiesDir, "study-1")
	makeStudy(t, studiesDir, "study-2")

	runner := NewRunner(store, seg, pool, studiesDir, t.TempDir())
	return NewManager(store, runner), store
}

func pollUntil(t *testing.T, timeout time.Duration, f func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if f() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not reached before timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManager_CreateReturnsUniquePendingIDs(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	mgr, _ := newTestManager(t, &stubSegmenter{block: block})
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if id == "" {
			t.Fatal("Create() returned empty id")
		}
		if seen[id] {
			t.Fatalf("Create() returned duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestManager_PendingRecordHasNoOutcome(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	mgr, _ := newTestManager(t, &stubSegmenter{block: block})
	ctx := context.Background()

	id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec, err := mgr.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Status != types.TaskPending && rec.Status != types.TaskProcessing {
		t.Errorf("Status = %q, want pending or processing before the run finishes", rec.Status)
	}
	if rec.Result != nil || rec.Error != "" {
		t.Errorf("non-terminal record carries an outcome: result=%v error=%q", rec.Result, rec.Error)
	}
	if rec.Request == nil || rec.Request.StudyCode != "study-1" {
		t.Errorf("Request snapshot = %+v", rec.Request)
	}
}

func TestManager_SuccessfulRun(t *testing.T) {
	mgr, _ := newTestManager(t, &stubSegmenter{})
	ctx := context.Background()

	id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var rec types.Task
	pollUntil(t, 3*time.Second, func() bool {
		rec, err = mgr.Get(ctx, id)
		return err == nil && rec.Status.Terminal()
	})

	if rec.Status != types.TaskCompleted {
		t.Fatalf("Status = %q, want completed (error=%q trace=%q)", rec.Status, rec.Error, rec.ErrorTrace)
	}
	if rec.Error != "" || rec.ErrorTrace != "" {
		t.Errorf("completed record carries error fields: %q / %q", rec.Error, rec.ErrorTrace)
	}

	res, ok := rec.Result.(*types.SegmentationResult)
	if !ok {
		t.Fatalf("Result type = %T", rec.Result)
	}
	if res.OutputFile == "" || res.InputFiles["t1c"] == "" {
		t.Errorf("Result = %+v", res)
	}
	if rec.StartedAt == nil || rec.CompletedAt == nil {
		t.Fatalf("timestamps missing: started=%v completed=%v", rec.StartedAt, rec.CompletedAt)
	}
	if rec.CompletedAt.Before(*rec.StartedAt) {
		t.Errorf("completed_at %v before started_at %v", rec.CompletedAt, rec.StartedAt)
	}
	if rec.Progress != "Segmentation complete!" {
		t.Errorf("Progress = %q", rec.Progress)
	}
}

func TestManager_FailedRun(t *testing.T) {
	mgr, _ := newTestManager(t, &stubSegmenter{err: errors.New("inference exploded")})
	ctx := context.Background()

	id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var rec types.Task
	pollUntil(t, 3*time.Second, func() bool {
		rec, err = mgr.Get(ctx, id)
		return err == nil && rec.Status.Terminal()
	})

	if rec.Status != types.TaskFailed {
		t.Fatalf("Status = %q, want failed", rec.Status)
	}
	if rec.Error != "inference exploded" {
		t.Errorf("Error = %q", rec.Error)
	}
	if rec.ErrorTrace == "" {
		t.Error("ErrorTrace is empty")
	}
	if rec.Result != nil {
		t.Errorf("failed record carries a result: %v", rec.Result)
	}
	if rec.StartedAt == nil || rec.CompletedAt == nil {
		t.Fatalf("timestamps missing: started=%v completed=%v", rec.StartedAt, rec.CompletedAt)
	}
	if rec.CompletedAt.Before(*rec.StartedAt) {
		t.Errorf("completed_at %v before started_at %v", rec.CompletedAt, rec.StartedAt)
	}
}

func TestManager_IndependentTasks(t *testing.T) {
	// One failing and one succeeding task resolve independently.
	store := state.NewInMemoryStore()
	pool := NewPool(2, 16)
	t.Cleanup(pool.StopWait)

	studiesDir := t.TempDir()
	makeStudy(t, studiesDir, "study-1")

	okRunner := NewRunner(store, &stubSegmenter{}, pool, studiesDir, t.TempDir())
	badRunner := NewRunner(store, &stubSegmenter{err: errors.New("boom")}, pool, studiesDir, t.TempDir())
	okMgr := NewManager(store, okRunner)
	badMgr := NewManager(store, badRunner)

	ctx := context.Background()
	okID, err := okMgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	badID, err := badMgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var okRec, badRec types.Task
	pollUntil(t, 3*time.Second, func() bool {
		okRec, _ = okMgr.Get(ctx, okID)
		badRec, _ = badMgr.Get(ctx, badID)
		return okRec.Status.Terminal() && badRec.Status.Terminal()
	})

	if okRec.Status != types.TaskCompleted {
		t.Errorf("ok task status = %q, want completed", okRec.Status)
	}
	if badRec.Status != types.TaskFailed {
		t.Errorf("bad task status = %q, want failed", badRec.Status)
	}
}

func TestManager_GetNotFound(t *testing.T) {
	mgr, _ := newTestManager(t, &stubSegmenter{})

	_, err := mgr.Get(context.Background(), "never-created")
	if !errors.Is(err, state.ErrTaskNotFound) {
		t.Errorf("Get() error = %v, want ErrTaskNotFound", err)
	}
}

func TestManager_DeleteThenGetNotFound(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	mgr, _ := newTestManager(t, &stubSegmenter{block: block})
	ctx := context.Background()

	id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := mgr.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := mgr.Get(ctx, id); !errors.Is(err, state.ErrTaskNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrTaskNotFound", err)
	}
	if err := mgr.Delete(ctx, id); !errors.Is(err, state.ErrTaskNotFound) {
		t.Errorf("second Delete() error = %v, want ErrTaskNotFound", err)
	}
}

func TestManager_DeleteNeverCreated(t *testing.T) {
	mgr, _ := newTestManager(t, &stubSegmenter{})

	if err := mgr.Delete(context.Background(), "nope"); !errors.Is(err, state.ErrTaskNotFound) {
		t.Errorf("Delete() error = %v, want ErrTaskNotFound", err)
	}
}

func TestManager_HealthIdempotent(t *testing.T) {
	mgr, _ := newTestManager(t, &stubSegmenter{})
	ctx := context.Background()

	first := mgr.Health(ctx)
	if first.Status != "healthy" || first.Storage != "memory" {
		t.Errorf("Health() = %+v", first)
	}
	if first.Redis != types.RedisDisconnected {
		t.Errorf("Redis = %q for memory backend, want %q", first.Redis, types.RedisDisconnected)
	}

	for i := 0; i < 3; i++ {
		h := mgr.Health(ctx)
		if h.Storage != first.Storage || h.Redis != first.Redis {
			t.Errorf("Health() changed with no state change: %+v vs %+v", h, first)
		}
	}
}

func TestRunner_SaturatedPoolFailsTask(t *testing.T) {
	store := state.NewInMemoryStore()
	pool := NewPool(1, 1)
	t.Cleanup(pool.Stop)

	block := make(chan struct{})
	defer close(block)

	studiesDir := t.TempDir()
	makeStudy(t, studiesDir, "study-1")

	runner := NewRunner(store, &stubSegmenter{block: block}, pool, studiesDir, t.TempDir())
	mgr := NewManager(store, runner)
	ctx := context.Background()

	// Fill the worker and the queue, then one more.
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, id)
		time.Sleep(20 * time.Millisecond)
	}

	rec, err := mgr.Get(ctx, ids[2])
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Status != types.TaskFailed {
		t.Fatalf("overflow task status = %q, want failed", rec.Status)
	}
	if rec.Error != ErrPoolSaturated.Error() {
		t.Errorf("Error = %q, want %q", rec.Error, ErrPoolSaturated.Error())
	}
}

func TestRunner_MissingStudyFailsTask(t *testing.T) {
	store := state.NewInMemoryStore()
	pool := NewPool(1, 4)
	t.Cleanup(pool.StopWait)

	runner := NewRunner(store, &stubSegmenter{}, pool, t.TempDir(), t.TempDir())
	mgr := NewManager(store, runner)
	ctx := context.Background()

	id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "gone"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var rec types.Task
	pollUntil(t, 3*time.Second, func() bool {
		rec, err = mgr.Get(ctx, id)
		return err == nil && rec.Status.Terminal()
	})

	if rec.Status != types.TaskFailed {
		t.Errorf("Status = %q, want failed", rec.Status)
	}
	if rec.Error == "" {
		t.Error("Error is empty for missing study")
	}
}

func TestManager_RedisBackendLifecycle(t *testing.T) {
	// Same lifecycle against the durable backend.
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := state.NewRedisStore(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	pool := NewPool(1, 4)
	t.Cleanup(pool.StopWait)

	studiesDir := t.TempDir()
	makeStudy(t, studiesDir, "study-1")

	runner := NewRunner(store, &stubSegmenter{}, pool, studiesDir, t.TempDir())
	mgr := NewManager(store, runner)
	ctx := context.Background()

	id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var rec types.Task
	pollUntil(t, 3*time.Second, func() bool {
		rec, err = mgr.Get(ctx, id)
		return err == nil && rec.Status.Terminal()
	})

	if rec.Status != types.TaskCompleted {
		t.Fatalf("Status = %q, want completed", rec.Status)
	}

	// Terminal record carries the 24h retention TTL.
	if ttl := mr.TTL("task:" + id); ttl != Retention {
		t.Errorf("TTL = %v, want %v", ttl, Retention)
	}

	h := mgr.Health(ctx)
	if h.Storage != "redis" || h.Redis != types.RedisConnected {
		t.Errorf("Health() = %+v", h)
	}
}

func TestManager_CreateSnapshotSurvivesDelete(t *testing.T) {
	// Deleting mid-processing removes the record; the runner's later writes
	// recreate only the fields they touch.
	block := make(chan struct{})
	mgr, store := newTestManager(t, &stubSegmenter{block: block})
	ctx := context.Background()

	id, err := mgr.Create(ctx, types.SegmentationRequest{StudyCode: "study-1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pollUntil(t, 3*time.Second, func() bool {
		rec, err := mgr.Get(ctx, id)
		return err == nil && rec.Status == types.TaskProcessing
	})

	if err := mgr.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := mgr.Get(ctx, id); !errors.Is(err, state.ErrTaskNotFound) {
		t.Fatalf("Get() after Delete error = %v, want ErrTaskNotFound", err)
	}

	close(block)
	pollUntil(t, 3*time.Second, func() bool {
		exists, _ := store.Exists(ctx, id)
		return exists
	})

	rec, err := mgr.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Status != types.TaskCompleted {
		t.Errorf("Status = %q", rec.Status)
	}
	// The original created_at and request snapshot are gone for good.
	if rec.Request != nil {
		t.Errorf("Request = %+v, want nil on recreated record", rec.Request)
	}
}
