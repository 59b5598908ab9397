// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the NewUnlock
// model: characters unlocked since the user's last app bootstrap.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// AddNewUnlock records characterID as newly unlocked for userID. Recording
// the same pair twice keeps the first timestamp.
func AddNewUnlock(ctx context.Context, db *gorm.DB, userID, characterID string, at time.Time) error {
	u := &domain.NewUnlock{
		ID:          uuid.NewString(),
		UserID:      userID,
		CharacterID: characterID,
		UnlockedAt:  at.UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(u).Error
}

// ListNewUnlocks returns the newly unlocked character IDs of userID, most
// recent first.
func ListNewUnlocks(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.NewUnlock{}).
		Where("user_id = ?", userID).
		Order("unlocked_at desc").
		Pluck("character_id", &out).Error
	return out, err
}

// ClearNewUnlocks empties userID's newly-unlocked set and returns how many
// entries were removed.
func ClearNewUnlocks(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.NewUnlock{})
	return res.RowsAffected, res.Error
}
