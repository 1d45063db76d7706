package kv

import (
	"context"
	"slices"
	"sync"
)

// MemStore is a thread-safe, in-process ListStore. It is the default
// backend when no persistent store module is configured, and the workhorse
// for tests. Data does not survive a restart.
type MemStore struct {
	mu      sync.RWMutex
	lists   map[string][]string // index 0 = newest (head)
	strings map[string]string
}

// NewMemStore creates an empty in-process store.
func NewMemStore() *MemStore {
	return &MemStore{
		lists:   make(map[string][]string),
		strings: make(map[string]string),
	}
}

// Compile-time interface check.
var _ ListStore = (*MemStore)(nil)

// LRange returns the inclusive [start, stop] slice of the list at key.
func (s *MemStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[key]
	lo, hi, ok := NormalizeRange(start, stop, int64(len(list)))
	if !ok {
		return nil, nil
	}
	return slices.Clone(list[lo : hi+1]), nil
}

// LPush prepends values one at a time, so the last value becomes the head.
func (s *MemStore) LPush(_ context.Context, key string, values ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	for _, v := range values {
		list = append([]string{v}, list...)
	}
	s.lists[key] = list
	return int64(len(list)), nil
}

// LLen returns the list length, 0 for an absent key.
func (s *MemStore) LLen(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.lists[key])), nil
}

// LTrim keeps only the inclusive [start, stop] range. An empty result
// removes the key, matching Redis behaviour.
func (s *MemStore) LTrim(_ context.Context, key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.lists[key]
	if !exists {
		return nil
	}
	lo, hi, ok := NormalizeRange(start, stop, int64(len(list)))
	if !ok {
		delete(s.lists, key)
		return nil
	}
	s.lists[key] = slices.Clone(list[lo : hi+1])
	return nil
}

// Get returns the string value at key.
func (s *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.strings[key]
	return v, ok, nil
}

// Set stores a string value at key.
func (s *MemStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = value
	return nil
}

// Del removes keys from both keyspaces and reports how many existed.
func (s *MemStore) Del(_ context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, key := range keys {
		if _, ok := s.lists[key]; ok {
			delete(s.lists, key)
			n++
		}
		if _, ok := s.strings[key]; ok {
			delete(s.strings, key)
			n++
		}
	}
	return n, nil
}

// Keys returns all list keys in unspecified order.
func (s *MemStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.lists))
	for k := range s.lists {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close is a no-op for the in-process store.
func (s *MemStore) Close() error { return nil }
