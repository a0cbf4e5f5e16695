package storage

import "sync"

// memoryBackend is the default Backend: a process-local map, used when
// no snapshot persistence is configured (tests, local demos).
type memoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newMemoryBackend(string) (Backend, error) {
	return &memoryBackend{data: make(map[string][]byte)}, nil
}

func init() { Register("memory", newMemoryBackend) }

func (m *memoryBackend) Name() string { return "memory" }
func (m *memoryBackend) Open() error  { return nil }
func (m *memoryBackend) Close() error { return nil }

func (m *memoryBackend) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *memoryBackend) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *memoryBackend) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}
