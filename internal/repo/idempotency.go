package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// ErrDuplicate is returned when a chat turn was already recorded under the
// same (user, character, key).
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the recorded turn for key if it has not expired at
// now. A blank characterID never matches.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, characterID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(characterID) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND character_id = ? AND key = ?", userID, characterID, key).
		Where("expires_at > ?", now).
		Take(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency records the serialized response of a completed chat turn,
// valid for ttl.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, characterID, key, response string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:          uuid.NewString(),
		UserID:      userID,
		CharacterID: characterID,
		Key:         key,
		Response:    response,
		Status:      status,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes every record that has expired at now and
// reports how many went.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// isUniqueViolation also matches the plain-text errors glebarez/sqlite
// returns, since it does not translate them to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "constraint failed: unique")
}
