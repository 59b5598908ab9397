package services

import (
	"time"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// EventType names a progression event pushed to clients.
type EventType string

const (
	// EventLevelUp fires when a chat turn raises the trust level.
	EventLevelUp EventType = "level_up"
	// EventNewCharacter fires when an NFC tag unlocks a character.
	EventNewCharacter EventType = "new_character"
)

// Event is a progression event addressed to a single user.
type Event struct {
	Type          EventType            `json:"type"`
	UserID        string               `json:"-"`
	CharacterID   string               `json:"characterId"`
	PreviousLevel int                  `json:"previousLevel,omitempty"`
	Relationship  *domain.Relationship `json:"relationship,omitempty"`
	Character     *domain.Character    `json:"character,omitempty"`
	At            time.Time            `json:"at"`
}

// Publisher delivers events. Publish must not block on slow consumers.
type Publisher interface {
	Publish(Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
