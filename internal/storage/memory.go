package storage

import (
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store, used for tests and the "memory" driver.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func memKey(userID string, kind Kind) string {
	return userID + "\x00" + string(kind)
}

// Get returns a copy of the stored document.
func (m *Memory) Get(_ context.Context, userID string, kind Kind) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[memKey(userID, kind)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Set stores a copy of data.
func (m *Memory) Set(_ context.Context, userID string, kind Kind, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[memKey(userID, kind)] = append([]byte(nil), data...)
	return nil
}

// Update runs fn under the store lock.
func (m *Memory) Update(_ context.Context, userID string, kind Kind, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(userID, kind)
	var cur []byte
	if data, ok := m.docs[key]; ok {
		cur = append([]byte(nil), data...)
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	m.docs[key] = append([]byte(nil), next...)
	return nil
}

// Delete removes the document.
func (m *Memory) Delete(_ context.Context, userID string, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, memKey(userID, kind))
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
