// Package task owns the lifecycle of segmentation tasks: record creation,
// state transitions, background execution and retention.
package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/neuroseg/neuroseg/internal/state"
	"github.com/neuroseg/neuroseg/internal/types"
)

// Manager orchestrates task state transitions and owns id generation. All
// operations on the request path suspend only for their store call; the
// segmentation work itself runs through the Runner's pool.
type Manager struct {
	store  state.Store
	runner *Runner
}

// NewManager creates a manager over store, dispatching work to runner
func NewManager(store state.Store, runner *Runner) *Manager {
	return &Manager{store: store, runner: runner}
}

// Create writes a pending record for a fresh task id, schedules the runner
// and returns immediately. It never waits on the segmentation work.
func (m *Manager) Create(ctx context.Context, req types.SegmentationRequest) (string, error) {
	taskID := uuid.NewString()

	encoded, err := encodeRequest(req)
	if err != nil {
		return "", err
	}
	fields := map[string]string{
		fieldStatus:    string(types.TaskPending),
		fieldCreatedAt: encodeTime(time.Now()),
		fieldRequest:   encoded,
	}
	if err := m.store.Put(ctx, taskID, fields); err != nil {
		return "", err
	}

	m.runner.Dispatch(taskID, req)
	return taskID, nil
}

// Get returns the current snapshot of the task record. Returns
// state.ErrTaskNotFound when no record exists for the id, whether it was
// never created, already deleted, or evicted by TTL.
func (m *Manager) Get(ctx context.Context, taskID string) (types.Task, error) {
	fields, err := m.store.Get(ctx, taskID)
	if err != nil {
		return types.Task{}, err
	}
	if len(fields) == 0 {
		return types.Task{}, state.ErrTaskNotFound
	}
	return decodeRecord(taskID, fields), nil
}

// Delete removes the record unconditionally, even mid-processing. The
// underlying computation is not interrupted; its later writes recreate only
// the fields they touch.
func (m *Manager) Delete(ctx context.Context, taskID string) error {
	return m.store.Delete(ctx, taskID)
}

// Health reports the active backend and, for the durable backend, whether a
// liveness probe currently succeeds. It never fails: connectivity problems
// degrade the reported value instead.
func (m *Manager) Health(ctx context.Context) types.Health {
	h := types.Health{
		Status:    "healthy",
		Storage:   m.store.Name(),
		Redis:     types.RedisDisconnected,
		Timestamp: time.Now().UTC(),
	}
	if m.store.Name() == "redis" {
		if err := m.store.Ping(ctx); err != nil {
			h.Redis = "error: " + err.Error()
		} else {
			h.Redis = types.RedisConnected
		}
	}
	return h
}
