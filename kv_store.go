package companionsdk

import (
	"sync"
)

// KVStore is the pluggable storage backend for session records, scored
// exchanges and aggregate statistics.
//
// All data is organized by namespace (typically "{app_id}:{user_id}")
// and key (e.g. "session_end", "exchanges").
type KVStore interface {
	// KV operations
	Get(namespace, key string) (string, error)
	Set(namespace, key, value string) error
	Delete(namespace, key string) error

	// List operations (ordered sequences for the exchange ring buffer)
	Append(namespace, key, value string) error
	GetList(namespace, key string, limit, offset int) ([]string, error)
	TrimList(namespace, key string, maxSize int) error
	ClearList(namespace, key string) error
	ListLength(namespace, key string) (int, error)
}

// InMemoryKVStore is a thread-safe in-memory KVStore for development and
// tests. Data is lost on restart.
type InMemoryKVStore struct {
	mu    sync.RWMutex
	kv    map[string]map[string]string
	lists map[string]map[string][]string
}

// NewInMemoryKVStore creates a new in-memory store.
func NewInMemoryKVStore() *InMemoryKVStore {
	return &InMemoryKVStore{
		kv:    make(map[string]map[string]string),
		lists: make(map[string]map[string][]string),
	}
}

func (s *InMemoryKVStore) Get(namespace, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ns, ok := s.kv[namespace]; ok {
		if v, ok := ns[key]; ok {
			return v, nil
		}
	}
	return "", nil
}

func (s *InMemoryKVStore) Set(namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv[namespace] == nil {
		s.kv[namespace] = make(map[string]string)
	}
	s.kv[namespace][key] = value
	return nil
}

func (s *InMemoryKVStore) Delete(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.kv[namespace]; ok {
		delete(ns, key)
	}
	return nil
}

func (s *InMemoryKVStore) Append(namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lists[namespace] == nil {
		s.lists[namespace] = make(map[string][]string)
	}
	s.lists[namespace][key] = append(s.lists[namespace][key], value)
	return nil
}

func (s *InMemoryKVStore) GetList(namespace, key string, limit, offset int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []string
	if ns, ok := s.lists[namespace]; ok {
		items = ns[key]
	}
	if items == nil {
		return []string{}, nil
	}
	if offset >= len(items) {
		return []string{}, nil
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	result := make([]string, len(items))
	copy(result, items)
	return result, nil
}

func (s *InMemoryKVStore) TrimList(namespace, key string, maxSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.lists[namespace]; ok {
		if lst, ok := ns[key]; ok && len(lst) > maxSize {
			ns[key] = lst[len(lst)-maxSize:]
		}
	}
	return nil
}

func (s *InMemoryKVStore) ClearList(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.lists[namespace]; ok {
		ns[key] = nil
	}
	return nil
}

func (s *InMemoryKVStore) ListLength(namespace, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ns, ok := s.lists[namespace]; ok {
		return len(ns[key]), nil
	}
	return 0, nil
}
