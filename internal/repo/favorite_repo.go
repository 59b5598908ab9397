// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Favorite
// model: the per-user set of favorite characters.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction opened by the service layer. Favorites toggle
// optimistically and are reverted if the upstream rejects the change; that
// only works when add and remove are both executed on the transaction handle.
//
// Error semantics:
//   - AddFavorite is idempotent: adding an existing pair is not an error.
//   - RemoveFavorite returns ErrNotFound when the pair did not exist.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// AddFavorite marks characterID as a favorite of userID.
func AddFavorite(ctx context.Context, db *gorm.DB, userID, characterID string) error {
	f := &domain.Favorite{
		ID:          uuid.NewString(),
		UserID:      userID,
		CharacterID: characterID,
		CreatedAt:   time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(f).Error
}

// RemoveFavorite unmarks characterID. It returns ErrNotFound if it was not a
// favorite.
func RemoveFavorite(ctx context.Context, db *gorm.DB, userID, characterID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND character_id = ?", userID, characterID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFavorite reports whether characterID is in userID's favorite set.
func IsFavorite(ctx context.Context, db *gorm.DB, userID, characterID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ? AND character_id = ?", userID, characterID).
		Count(&n).Error
	return n > 0, err
}

// ListFavorites returns the favorite character IDs of userID, oldest first.
func ListFavorites(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("character_id", &out).Error
	return out, err
}
