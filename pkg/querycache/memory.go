package querycache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxEntries = 1024

type memoryEntry struct {
	entry     *Entry
	expiresAt time.Time
}

// MemoryStore is a bounded in-process Store.
type MemoryStore struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time

	mu   sync.RWMutex
	tags map[string]int64
}

// NewMemoryStore returns a MemoryStore holding at most maxEntries results.
// now may be nil.
func NewMemoryStore(maxEntries int, now func() time.Time) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{entries: entries, now: now, tags: make(map[string]int64)}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	me, ok := s.entries.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !s.now().Before(me.expiresAt) {
		s.entries.Remove(key)
		return nil, ErrMiss
	}
	return me.entry, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, e *Entry, ttl time.Duration) error {
	s.entries.Add(key, memoryEntry{entry: e, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) TagVersions(_ context.Context, tags []string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64, len(tags))
	for _, t := range tags {
		out[t] = s.tags[t]
	}
	return out, nil
}

func (s *MemoryStore) BumpTags(_ context.Context, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tags {
		s.tags[t]++
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
