package db

import "sync"

// MemoryKV is an in-memory KeyValue used by tests and the emulator.
type MemoryKV struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{buckets: make(map[string]map[string][]byte)}
}

// Get implements KeyValue.
func (m *MemoryKV) Get(bucket, key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[string(bucket)]
	if !ok {
		return nil, false, nil
	}
	v, ok := b[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put implements KeyValue.
func (m *MemoryKV) Put(bucket, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[string(bucket)]
	if !ok {
		b = make(map[string][]byte)
		m.buckets[string(bucket)] = b
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	b[string(key)] = stored
	return nil
}

// Delete implements KeyValue.
func (m *MemoryKV) Delete(bucket, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buckets[string(bucket)]; ok {
		delete(b, string(key))
	}
	return nil
}

// Close implements KeyValue.
func (m *MemoryKV) Close() error {
	return nil
}
