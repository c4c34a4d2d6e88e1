package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTaskNotFound is returned when a task record does not exist in the
	// store: never created, already deleted, or expired.
	ErrTaskNotFound = errors.New("task not found")
	// ErrStoreUnavailable wraps transient connectivity failures talking to
	// the durable backend, so callers can tell unavailability from absence.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Store is the key-value abstraction over task records. One record per task
// id, stored as a flat field map; structured fields are serialized to text
// before they reach this layer. Implementations must be safe for concurrent
// use across many tasks without a global lock.
type Store interface {
	// Put merges fields into the record for taskID, creating it if absent.
	// Previously stored fields not named in the map are left untouched.
	Put(ctx context.Context, taskID string, fields map[string]string) error
	// Get returns the current field map for taskID, or an empty map if the
	// record does not exist.
	Get(ctx context.Context, taskID string) (map[string]string, error)
	// Exists reports whether a record exists for taskID.
	Exists(ctx context.Context, taskID string) (bool, error)
	// Delete removes the record unconditionally. Returns ErrTaskNotFound if
	// it does not exist.
	Delete(ctx context.Context, taskID string) error
	// Expire schedules the whole record for removal after ttl, where the
	// backend supports eviction.
	Expire(ctx context.Context, taskID string, ttl time.Duration) error
	// Ping probes backend liveness.
	Ping(ctx context.Context) error
	// Name identifies the active backend ("redis" or "memory").
	Name() string
	Close() error
}

// InMemoryStore is the process-local fallback backend: a mutex-guarded map
// of field maps. It is non-persistent and has no eviction; records live
// until deleted explicitly or the process exits.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]map[string]string
}

// NewInMemoryStore creates a new in-memory task store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tasks: make(map[string]map[string]string)}
}

// Put merges fields into the record for taskID, creating it if absent
func (s *InMemoryStore) Put(_ context.Context, taskID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.tasks[taskID]
	if !exists {
		rec = make(map[string]string, len(fields))
		s.tasks[taskID] = rec
	}
	for k, v := range fields {
		rec[k] = v
	}
	return nil
}

// Get returns a copy of the record's field map, empty if absent
func (s *InMemoryStore) Get(_ context.Context, taskID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.tasks[taskID]
	out := make(map[string]string, len(rec))
	if !exists {
		return out, nil
	}
	for k, v := range rec {
		out[k] = v
	}
	return out, nil
}

// Exists reports whether a record exists for taskID
func (s *InMemoryStore) Exists(_ context.Context, taskID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.tasks[taskID]
	return exists, nil
}

// Delete removes the record for taskID
func (s *InMemoryStore) Delete(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

// Expire is a no-op: the fallback backend has no eviction. Terminal records
// rely on explicit deletion or process restart, an accepted limitation.
func (s *InMemoryStore) Expire(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

// Ping always succeeds for the in-process store
func (s *InMemoryStore) Ping(_ context.Context) error {
	return nil
}

// Name identifies the backend
func (s *InMemoryStore) Name() string {
	return "memory"
}

// Close is a no-op
func (s *InMemoryStore) Close() error {
	return nil
}
