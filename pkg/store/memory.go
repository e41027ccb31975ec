package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store. A positive limit caps the number of keys;
// writes of new keys beyond it fail with ErrFull.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]string
	limit int
}

// NewMemory creates an empty Memory store. limit <= 0 means unbounded.
func NewMemory(limit int) *Memory {
	return &Memory{data: make(map[string]string), limit: limit}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; !exists && m.limit > 0 && len(m.data) >= m.limit {
		return ErrFull
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
