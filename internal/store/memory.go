package store

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

type memEntry struct {
	rel       domain.Relationship
	expiresAt time.Time
}

// MemoryStore is a process-local RelationshipStore.
//
// Expired entries are dropped lazily on read and swept opportunistically on
// write, so memory stays bounded by the number of live (user, character)
// pairs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	ttl     time.Duration
	now     func() time.Time

	writes uint64
}

// NewMemoryStore returns an empty store. A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, userID, characterID string) (domain.Relationship, bool, error) {
	k := key(userID, characterID)

	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()
	if !ok {
		return domain.Relationship{}, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		// re-check: a concurrent Put may have refreshed it
		if cur, ok := s.entries[k]; ok && !s.now().Before(cur.expiresAt) {
			delete(s.entries, k)
		}
		s.mu.Unlock()
		return domain.Relationship{}, false, nil
	}
	return e.rel, true, nil
}

func (s *MemoryStore) Put(_ context.Context, userID string, rel domain.Relationship) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if s.writes%1024 == 0 {
		for k, e := range s.entries {
			if !now.Before(e.expiresAt) {
				delete(s.entries, k)
			}
		}
	}
	s.entries[key(userID, rel.CharacterID)] = memEntry{rel: rel, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, userID, characterID string) error {
	s.mu.Lock()
	delete(s.entries, key(userID, characterID))
	s.mu.Unlock()
	return nil
}

// Len reports the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
