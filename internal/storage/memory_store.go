package storage

import (
	"context"
	"path/filepath"
	"sync"
)

// MemoryFragmentStore keeps fragments in memory. It is used in tests and in
// dry runs.
type MemoryFragmentStore struct {
	mu        sync.RWMutex
	fragments map[string][]byte
	calls     MemoryCalls
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Put      int
	Fragment int
	Cleanup  int
}

// NewMemoryFragmentStore creates an empty store.
func NewMemoryFragmentStore() *MemoryFragmentStore {
	return &MemoryFragmentStore{fragments: make(map[string][]byte)}
}

func memoryKey(destDir, reference, tocFilename string) string {
	dir, name := split(reference)
	return filepath.ToSlash(filepath.Join(destDir, filepath.FromSlash(dir))) + "|" + FragmentName(name, tocFilename)
}

func (m *MemoryFragmentStore) Put(_ context.Context, destDir, name, tocFilename string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++
	m.fragments[memoryKey(destDir, name, tocFilename)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryFragmentStore) Fragment(destDir, reference, tocFilename string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Fragment++
	data, ok := m.fragments[memoryKey(destDir, reference, tocFilename)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *MemoryFragmentStore) Cleanup(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Cleanup++
	m.fragments = make(map[string][]byte)
	return nil
}

// Len returns the number of stored fragments.
func (m *MemoryFragmentStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.fragments)
}

// Calls returns the invocation counters.
func (m *MemoryFragmentStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
