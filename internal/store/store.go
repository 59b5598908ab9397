// Package store holds the keyed relationship store: the single place where
// the service keeps the latest known Relationship snapshot per
// (user, character). Every page or request that needs a relationship reads it
// from here, and every write path that can change a relationship invalidates
// or replaces the entry, so two readers never hold diverging copies.
//
// Two backends are provided: MemoryStore for single-process deployments and
// tests, and RedisStore for deployments with more than one replica.
package store

import (
	"context"
	"time"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// RelationshipStore is a read-through cache of relationship snapshots.
//
// Get returns ok=false on a miss (including an expired entry). Implementations
// must be safe for concurrent use.
type RelationshipStore interface {
	Get(ctx context.Context, userID, characterID string) (rel domain.Relationship, ok bool, err error)
	Put(ctx context.Context, userID string, rel domain.Relationship) error
	Invalidate(ctx context.Context, userID, characterID string) error
}

// DefaultTTL bounds how long a snapshot is served without a refetch.
const DefaultTTL = 10 * time.Minute

func key(userID, characterID string) string {
	return "tasuki:rel:" + userID + ":" + characterID
}
