package kvstore

import (
	"context"
	"sync"
)

type memoryEntry struct {
	raw     []byte
	version Version
}

type memoryBackend struct {
	mu   sync.Mutex
	data map[string]memoryEntry
}

func NewMemoryBackend() Backend {
	return &memoryBackend{data: map[string]memoryEntry{}}
}

func (m *memoryBackend) Read(_ context.Context, key string) ([]byte, Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil, Absent, nil
	}
	out := make([]byte, len(e.raw))
	copy(out, e.raw)
	return out, e.version, nil
}

func (m *memoryBackend) Write(_ context.Context, key string, value []byte, expect Version) (Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.data[key].version
	if expect != NoVersion && expect != cur {
		return NoVersion, ErrVersionConflict
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = memoryEntry{raw: v, version: cur + 1}
	return cur + 1, nil
}

func (m *memoryBackend) Close() error { return nil }
