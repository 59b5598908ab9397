package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// RedisStore is a RelationshipStore shared across replicas. Snapshots are
// stored as JSON strings with a TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore dials Redis and verifies the connection with a PING.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis ping %s: %w", opts.Addr, err)
	}
	return NewRedisStoreFromClient(client, opts.TTL), nil
}

// NewRedisStoreFromClient wraps an existing client. A non-positive ttl uses
// DefaultTTL.
func NewRedisStoreFromClient(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID, characterID string) (domain.Relationship, bool, error) {
	raw, err := s.client.Get(ctx, key(userID, characterID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Relationship{}, false, nil
	}
	if err != nil {
		return domain.Relationship{}, false, fmt.Errorf("store: redis get: %w", err)
	}
	var rel domain.Relationship
	if err := json.Unmarshal(raw, &rel); err != nil {
		// A corrupt entry is a miss; drop it so the next read refetches.
		_ = s.client.Del(ctx, key(userID, characterID)).Err()
		return domain.Relationship{}, false, nil
	}
	return rel, true, nil
}

func (s *RedisStore) Put(ctx context.Context, userID string, rel domain.Relationship) error {
	raw, err := json.Marshal(rel)
	if err != nil {
		return fmt.Errorf("store: encode relationship: %w", err)
	}
	if err := s.client.Set(ctx, key(userID, rel.CharacterID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, userID, characterID string) error {
	if err := s.client.Del(ctx, key(userID, characterID)).Err(); err != nil {
		return fmt.Errorf("store: redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }
