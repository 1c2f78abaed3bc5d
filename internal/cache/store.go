package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the byte-level backend of the result cache. Every entry is
// recorded under an index (one per report) so a report can be invalidated
// without scanning the keyspace.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, index, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteIndex removes every entry recorded under index and returns how
	// many live entries were removed. An entry stored while DeleteIndex runs
	// is either removed or left reachable through index.
	DeleteIndex(ctx context.Context, index string) (int, error)
}

type memoryEntry struct {
	index string
	value []byte
}

// MemoryStore is an in-process Store backed by go-cache. The index map only
// tracks keys of live entries: Delete, DeleteIndex and Sweep prune it.
type MemoryStore struct {
	mu      sync.Mutex
	items   *gocache.Cache
	indexes map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		// expiry is swept by RunJanitor so the index stays in step
		items:   gocache.New(gocache.NoExpiration, 0),
		indexes: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.(memoryEntry).value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, index, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.items.Get(key); ok && prev.(memoryEntry).index != index {
		s.unindex(prev.(memoryEntry).index, key)
	}
	s.items.Set(key, memoryEntry{index: index, value: value}, ttl)

	members, ok := s.indexes[index]
	if !ok {
		members = make(map[string]struct{})
		s.indexes[index] = members
	}
	members[key] = struct{}{}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if v, ok := s.items.Get(k); ok {
			s.unindex(v.(memoryEntry).index, k)
		}
		s.items.Delete(k)
	}
	return nil
}

func (s *MemoryStore) DeleteIndex(ctx context.Context, index string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.indexes[index] {
		if _, ok := s.items.Get(k); ok {
			n++
		}
		s.items.Delete(k)
	}
	delete(s.indexes, index)
	return n, nil
}

// must hold s.mu
func (s *MemoryStore) unindex(index, key string) {
	members := s.indexes[index]
	delete(members, key)
	if len(members) == 0 {
		delete(s.indexes, index)
	}
}

// Sweep removes expired entries and their index records. It returns how many
// index records were pruned.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.DeleteExpired()
	n := 0
	for index, members := range s.indexes {
		for k := range members {
			if _, ok := s.items.Get(k); !ok {
				delete(members, k)
				n++
			}
		}
		if len(members) == 0 {
			delete(s.indexes, index)
		}
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
