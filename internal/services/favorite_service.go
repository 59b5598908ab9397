// Package services – FavoriteService
//
// This file implements FavoriteService, which keeps the local favorite set and
// the upstream favorite flag in step. The local change is committed first and
// the upstream is called outside any transaction; when the upstream rejects
// the change a compensating write puts the set back the way it was.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/store"
)

// FavoriteService toggles and sets favorites.
type FavoriteService struct {
	DB    *gorm.DB
	API   FavoriteAPI
	Store store.RelationshipStore

	// pair serializes changes to one (user, character) so a revert never
	// undoes a concurrent change.
	pair sync.Map // string -> *sync.Mutex
}

// favoriteChange is the committed local mutation of one apply.
type favoriteChange struct {
	was, next bool
}

func (c favoriteChange) changed() bool { return c.was != c.next }

// Toggle flips characterID's membership in userID's favorite set and returns
// the new state.
func (s *FavoriteService) Toggle(ctx context.Context, userID, characterID string) (bool, error) {
	return s.apply(ctx, "Toggle", userID, characterID, nil)
}

// Set makes characterID a favorite (or not) regardless of its current state.
func (s *FavoriteService) Set(ctx context.Context, userID, characterID string, favorite bool) (bool, error) {
	return s.apply(ctx, "Set", userID, characterID, &favorite)
}

// apply commits the local change, updates the upstream and reverts the local
// change if the upstream fails. want == nil means toggle.
func (s *FavoriteService) apply(ctx context.Context, op, userID, characterID string, want *bool) (bool, error) {
	tr := otel.Tracer("services/FavoriteService")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("character.id", characterID),
		),
	)
	defer span.End()

	mu := s.lock(userID, characterID)
	mu.Lock()
	defer mu.Unlock()

	ch, err := s.commit(ctx, userID, characterID, want)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	if err := s.API.UpdateFavorite(ctx, characterID, ch.next); err != nil {
		err = characterErr(err)
		if ch.changed() {
			// the caller may be gone; the local set must still be restored
			if rerr := s.write(context.WithoutCancel(ctx), userID, characterID, ch.was); rerr != nil {
				log.Ctx(ctx).Error().Err(rerr).Str("character_id", characterID).Msg("favorite revert failed")
				err = errors.Join(err, fmt.Errorf("revert favorite: %w", rerr))
			}
		}
		span.RecordError(err)
		return false, err
	}

	invalidateRelationship(ctx, s.Store, userID, characterID)
	return ch.next, nil
}

// commit reads the current membership and writes the next one in a short
// transaction.
func (s *FavoriteService) commit(ctx context.Context, userID, characterID string, want *bool) (favoriteChange, error) {
	var ch favoriteChange
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		was, err := repo.IsFavorite(ctx, tx, userID, characterID)
		if err != nil {
			return err
		}
		ch = favoriteChange{was: was, next: !was}
		if want != nil {
			ch.next = *want
		}
		if !ch.changed() {
			return nil
		}
		return setFavorite(ctx, tx, userID, characterID, ch.next)
	})
	return ch, err
}

func (s *FavoriteService) write(ctx context.Context, userID, characterID string, favorite bool) error {
	return setFavorite(ctx, s.DB, userID, characterID, favorite)
}

func (s *FavoriteService) lock(userID, characterID string) *sync.Mutex {
	mu, _ := s.pair.LoadOrStore(userID+"\x00"+characterID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func setFavorite(ctx context.Context, db *gorm.DB, userID, characterID string, favorite bool) error {
	var err error
	if favorite {
		err = repo.AddFavorite(ctx, db, userID, characterID)
	} else {
		err = repo.RemoveFavorite(ctx, db, userID, characterID)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	return err
}

// List returns userID's favorite character IDs.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]string, error) {
	return repo.ListFavorites(ctx, s.DB, userID)
}
