package domain

import "time"

// Idempotency represents a recorded chat turn, keyed by
// (user_id, character_id, key). It lets a client resend a POST after a dropped
// connection and get the original turn back instead of talking to the
// character twice.
type Idempotency struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_character_key,priority:1"`
	CharacterID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_character_key,priority:2"`
	Key         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_character_key,priority:3"`
	Response    string    `gorm:"type:TEXT NOT NULL"`
	Status      int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt   time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
