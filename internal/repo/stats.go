package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// NewUnlocksStats returns the size of userID's newly-unlocked set and its
// latest UnlockedAt (nil when empty). Handlers derive a weak ETag from it so
// the roster's polling can be answered with 304 without building the list.
func NewUnlocksStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return userSetStats(ctx, db, &domain.NewUnlock{}, "unlocked_at", userID)
}

// FavoritesStats is NewUnlocksStats for the favorite set, keyed on CreatedAt.
func FavoritesStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return userSetStats(ctx, db, &domain.Favorite{}, "created_at", userID)
}

func userSetStats(ctx context.Context, db *gorm.DB, model any, tsCol, userID string) (int64, *time.Time, error) {
	q := db.WithContext(ctx).Model(model).Where("user_id = ?", userID)

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// ORDER BY instead of MAX(): SQLite hands MAX() back as TEXT.
	var ts []time.Time
	if err := q.Order(tsCol+" DESC").Limit(1).Pluck(tsCol, &ts).Error; err != nil {
		return 0, nil, err
	}
	if len(ts) == 0 {
		return count, nil, nil
	}
	return count, &ts[0], nil
}
