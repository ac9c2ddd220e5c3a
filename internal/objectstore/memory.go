package objectstore

import (
	"context"
	"errors"
	"sync"
)

var errPutFailed = errors.New("objectstore: put failed")

// Memory is an in-process Store used in tests and local development.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	// FailPuts forces Put to fail; lets workflow tests exercise upload
	// failure paths.
	FailPuts bool
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, path string, data []byte, _ string, overwrite bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts {
		return "", errPutFailed
	}
	if _, exists := m.objects[path]; exists && !overwrite {
		return "", ErrObjectExists
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[path] = stored
	return path, nil
}

func (m *Memory) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[path]
	if !ok {
		return nil, ErrNoObject
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

// Len reports the number of stored objects; test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Has reports whether a path currently holds an object; test helper.
func (m *Memory) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok
}
