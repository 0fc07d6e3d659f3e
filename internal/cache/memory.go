package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It is the default backend: the
// service is designed around local caching, so a single-node deployment
// needs nothing more.
type MemoryStore struct {
	mu sync.RWMutex
	// entries maps version -> key -> value.
	entries map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]map[string][]byte{},
	}
}

// Get returns the entry under the current version, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[Version][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put writes an entry under the current version.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[Version] == nil {
		s.entries[Version] = map[string][]byte{}
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.entries[Version][key] = stored
	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries[Version], key)
	return nil
}

// Keys lists all keys under the current version.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries[Version]))
	for key := range s.entries[Version] {
		keys = append(keys, key)
	}
	return keys, nil
}

// Purge removes every entry under the current version.
func (s *MemoryStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Version)
	return nil
}

// PurgeStaleVersions removes entries written under other versions.
func (s *MemoryStore) PurgeStaleVersions(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for version := range s.entries {
		if version != Version {
			delete(s.entries, version)
		}
	}
	return nil
}

// seed installs an entry under an arbitrary version. Test helper.
func (s *MemoryStore) seed(version, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[version] == nil {
		s.entries[version] = map[string][]byte{}
	}
	s.entries[version][key] = value
}

// versionCount reports how many version namespaces exist. Test helper.
func (s *MemoryStore) versionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Verify interface
var _ Store = (*MemoryStore)(nil)
