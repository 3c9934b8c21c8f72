package store

import (
	"context"
	"strconv"
	"sync"
)

// Memory is a Store kept in process memory.
type Memory[T any] struct {
	mu      sync.RWMutex
	seq     uint64
	records map[string]T
}

// NewMemory creates an empty in-memory store.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{records: make(map[string]T)}
}

// List implements Store
func (m *Memory[T]) List(ctx context.Context) ([]Entry[T], error) {
	m.mu.RLock()
	entries := make([]Entry[T], 0, len(m.records))
	for id, v := range m.records {
		entries = append(entries, Entry[T]{ID: id, Value: v})
	}
	m.mu.RUnlock()

	sortEntries(entries)
	return entries, nil
}

// Get implements Store
func (m *Memory[T]) Get(ctx context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.records[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return v, nil
}

// Create implements Store
func (m *Memory[T]) Create(ctx context.Context, v T) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := strconv.FormatUint(m.seq, 10)
	m.records[id] = v
	return id, nil
}

// Update implements Store
func (m *Memory[T]) Update(ctx context.Context, id string, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	m.records[id] = v
	return nil
}

// Delete implements Store
func (m *Memory[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}
