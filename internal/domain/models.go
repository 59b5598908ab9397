package domain

import "time"

// Favorite marks a character as a favorite of a user. The (user, character)
// pair is unique; removing a favorite deletes the row.
type Favorite struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"      gorm:"type:varchar(64);not null;uniqueIndex:ux_favorite_user_character,priority:1"`
	CharacterID string    `json:"character_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_favorite_user_character,priority:2"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// NewUnlock records a character unlocked since the user's last bootstrap.
// Rows only drive the "NEW" badge and are cleared on bootstrap.
type NewUnlock struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"      gorm:"type:varchar(64);not null;uniqueIndex:ux_new_unlock_user_character,priority:1"`
	CharacterID string    `json:"character_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_new_unlock_user_character,priority:2"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// TableName returns the database table name for NewUnlock.
func (NewUnlock) TableName() string { return "new_unlocks" }
