package respcache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"ai-airquality-be/pkg/classify"
	"ai-airquality-be/pkg/fallback"
)

// memoryEntry wraps the payload with its creation time so the cap
// eviction can find the oldest entry.
type memoryEntry struct {
	result    *fallback.Result
	createdAt time.Time
}

// MemoryStore is the in-process cache backend. Expiry is lazy on read
// plus the go-cache janitor sweep; a max-entry cap with oldest-first
// eviction bounds memory as a backstop.
type MemoryStore struct {
	cache  *gocache.Cache
	policy Policy
}

// NewMemoryStore creates a memory-backed store. The janitor purges
// expired entries every 10 minutes, mirroring the lazy check on read.
func NewMemoryStore(policy Policy) *MemoryStore {
	if policy.MaxEntries <= 0 {
		policy.MaxEntries = DefaultPolicy().MaxEntries
	}
	return &MemoryStore{
		cache:  gocache.New(gocache.NoExpiration, 10*time.Minute),
		policy: policy,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*fallback.Result, bool) {
	v, found := s.cache.Get(key)
	if !found {
		return nil, false
	}
	return v.(memoryEntry).result, true
}

func (s *MemoryStore) Put(_ context.Context, key string, intent classify.Intent, result *fallback.Result) {
	ttl, cacheable := s.policy.TTLFor(intent)
	if !cacheable {
		return
	}

	if s.cache.ItemCount() >= s.policy.MaxEntries {
		s.evictOldest()
	}

	s.cache.Set(key, memoryEntry{result: result, createdAt: time.Now()}, ttl)
}

// evictOldest removes the entry with the earliest creation time. Runs
// rarely (only at the cap), so the full scan is acceptable.
func (s *MemoryStore) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, item := range s.cache.Items() {
		entry := item.Object.(memoryEntry)
		if oldestKey == "" || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
		}
	}
	if oldestKey != "" {
		s.cache.Delete(oldestKey)
	}
}
