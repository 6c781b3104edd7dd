package services

import (
	"context"
	"fmt"
	"sync"
)

// MockObjectStore keeps objects in memory for tests
type MockObjectStore struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMockObjectStore creates an empty in-memory store
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{objects: make(map[string][]byte)}
}

// SetAsMockForTesting installs a DesignImageService backed by this store as
// the global image service.
func (m *MockObjectStore) SetAsMockForTesting() {
	SetImageService(NewDesignImageService(m))
}

// Put stores body under key
func (m *MockObjectStore) Put(_ context.Context, key, _ string, body []byte) error {
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), body...)
	m.mu.Unlock()
	return nil
}

// URL returns a fake bucket URL for keys that exist
func (m *MockObjectStore) URL(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	_, exists := m.objects[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("object not found in mock store: %s", key)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// Delete removes key
func (m *MockObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Objects returns a copy of everything stored
func (m *MockObjectStore) Objects() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		out[k] = v
	}
	return out
}

// Exists reports whether key is stored
func (m *MockObjectStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Clear removes every object
func (m *MockObjectStore) Clear() {
	m.mu.Lock()
	m.objects = make(map[string][]byte)
	m.mu.Unlock()
}
