// Package domain defines the data model of the companion service: characters,
// relationships, stories and chat messages as the rest of the code sees them
// (already mapped from the upstream wire format), the pure progression rules
// that operate on them, and the GORM persistence models for the small amount
// of state this service owns locally.
package domain

import "time"

// Gender is the normalized gender of a character.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Trust levels are integers in [MinTrustLevel, MaxTrustLevel].
const (
	MinTrustLevel = 1
	MaxTrustLevel = 5
)

// Character is a regional character a user can meet and talk to.
//
// Most attributes are hidden while IsLocked is true; the adapter layer blanks
// them so that a locked character only ever carries ID, ThumbnailURL and
// IsLocked.
type Character struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Gender         Gender   `json:"gender"`
	OccupationID   string   `json:"occupationId,omitempty"`
	MunicipalityID string   `json:"municipalityId,omitempty"`
	ImageURL       string   `json:"imageUrl,omitempty"`
	ThumbnailURL   string   `json:"thumbnailUrl,omitempty"`
	Introduction   string   `json:"introduction,omitempty"`
	Likes          []string `json:"likes,omitempty"`
	Dislikes       []string `json:"dislikes,omitempty"`
	Personality    []string `json:"personality,omitempty"`
	IsLocked       bool     `json:"isLocked"`
}

// Relationship is the server-owned state of one (user, character) pair.
//
// TrustPoints is always below NextLevelPoints for the current level. Level-up
// thresholds are decided upstream; this service only observes snapshots.
type Relationship struct {
	CharacterID        string     `json:"characterId"`
	TrustLevelID       int        `json:"trustLevelId"`
	TrustPoints        int        `json:"trustPoints"`
	NextLevelPoints    int        `json:"nextLevelPoints"`
	ConversationCount  int        `json:"conversationCount"`
	FirstMetAt         time.Time  `json:"firstMetAt"`
	LastConversationAt *time.Time `json:"lastConversationAt,omitempty"`
	IsFavorite         bool       `json:"isFavorite"`
}

// Story belongs to a character and is gated by a trust level.
type Story struct {
	ID                 string `json:"id"`
	CharacterID        string `json:"characterId"`
	Title              string `json:"title"`
	Content            string `json:"content"`
	RequiredTrustLevel int    `json:"requiredTrustLevel"`
	IsUnlocked         bool   `json:"isUnlocked"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry of a conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Municipality is a city, town or village a character lives in.
type Municipality struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PrefectureID string `json:"prefectureId"`
}

// Occupation is a character's job.
type Occupation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is a regional event listing.
type Event struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	StartsAt       *time.Time `json:"startsAt,omitempty"`
	EndsAt         *time.Time `json:"endsAt,omitempty"`
	MunicipalityID string     `json:"municipalityId,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty"`
}

// Achievement is a badge the user has earned or can still earn.
type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IconURL     string     `json:"iconUrl,omitempty"`
	IsUnlocked  bool       `json:"isUnlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// Profile pairs a character with the user's relationship to it. Relationship
// is nil when the user has not met the character yet.
type Profile struct {
	Character
	Relationship *Relationship `json:"relationship,omitempty"`
}
