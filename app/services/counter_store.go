// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"sync"
)

// CounterStore persists one monotonically increasing integer per named scope.
// IncrementAndGet must be linearizable per scope: concurrent callers always
// observe distinct consecutive values. ResetTo is a plain overwrite and is not
// coordinated with in-flight increments.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, scope string) (int64, error)
	ResetTo(ctx context.Context, scope string, value int64) error
}

// MemoryCounterStore is a process-local CounterStore guarded by a mutex.
// Values are lost on restart.
type MemoryCounterStore struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemoryCounterStore creates an empty in-memory counter store
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{values: make(map[string]int64)}
}

func (s *MemoryCounterStore) IncrementAndGet(ctx context.Context, scope string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope]++
	return s.values[scope], nil
}

func (s *MemoryCounterStore) ResetTo(ctx context.Context, scope string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope] = value
	return nil
}

// Get returns the current value for scope, 0 if never incremented
func (s *MemoryCounterStore) Get(ctx context.Context, scope string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[scope], nil
}
