// Package storage holds the byte-level persistence adapters behind the card
// repository. Each adapter stores a single value under one namespaced key.
package storage

import (
	"fmt"
	"sync"
)

// DefaultKey is the namespace the collection is stored under.
const DefaultKey = "flashcards.v1"

// Store is durable storage for the serialized collection.
// ReadAll reports ok=false when nothing has been written yet.
type Store interface {
	ReadAll() (data []byte, ok bool, err error)
	WriteAll(data []byte) error
	Close() error
}

// Open returns the store for driver. path is ignored by the memory driver.
func Open(driver, path, key string) (Store, error) {
	switch driver {
	case "sqlite":
		s, err := OpenSQLite(path, key)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "file":
		return NewFileStore(path), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// MemoryStore keeps the value in process memory. Used by tests and by
// the "memory" driver.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
	set  bool

	// FailWrites makes WriteAll return this error when non-nil.
	FailWrites error
	// FailReads makes ReadAll return this error when non-nil.
	FailReads error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) ReadAll() ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, false, m.FailReads
	}
	if !m.set {
		return nil, false, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, true, nil
}

func (m *MemoryStore) WriteAll(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data = append(m.data[:0:0], data...)
	m.set = true
	return nil
}

func (m *MemoryStore) Close() error { return nil }
