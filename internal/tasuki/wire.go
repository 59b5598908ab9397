package tasuki

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// flexID accepts identifiers encoded either as JSON strings or numbers.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

func (id flexID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

type characterWire struct {
	ID             flexID            `json:"id"`
	Name           string            `json:"name"`
	Age            int               `json:"age"`
	Gender         int               `json:"gender"`
	OccupationID   flexID            `json:"occupation_id"`
	MunicipalityID flexID            `json:"municipality_id"`
	ImageURL       string            `json:"image_url"`
	ThumbnailURL   string            `json:"thumbnail_url"`
	Introduction   string            `json:"introduction"`
	Likes          []string          `json:"likes"`
	Dislikes       []string          `json:"dislikes"`
	Personality    []string          `json:"personality"`
	IsLocked       bool              `json:"is_locked"`
	Relationship   *relationshipWire `json:"relationship"`
}

type relationshipWire struct {
	CharacterID        flexID     `json:"character_id"`
	TrustLevelID       int        `json:"trust_level_id"`
	TrustPoints        int        `json:"trust_points"`
	NextLevelPoints    int        `json:"next_level_points"`
	ConversationCount  int        `json:"conversation_count"`
	FirstMetAt         *time.Time `json:"first_met_at"`
	LastConversationAt *time.Time `json:"last_conversation_at"`
	IsFavorite         bool       `json:"is_favorite"`
}

type storyWire struct {
	ID                 flexID `json:"id"`
	CharacterID        flexID `json:"character_id"`
	Title              string `json:"title"`
	Content            string `json:"content"`
	RequiredTrustLevel int    `json:"required_trust_level"`
}

// messageWire is a chat entry; the upstream calls the text "response" for
// every role.
type messageWire struct {
	Role     string `json:"role"`
	Response string `json:"response"`
}

type sendChatWire struct {
	Role     string        `json:"role"`
	Response string        `json:"response"`
	History  []messageWire `json:"history"`
}

type municipalityWire struct {
	ID           flexID `json:"id"`
	Name         string `json:"name"`
	PrefectureID flexID `json:"prefecture_id"`
}

type occupationWire struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

type eventWire struct {
	ID             flexID     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	MunicipalityID flexID     `json:"municipality_id"`
	ImageURL       string     `json:"image_url"`
}

type achievementWire struct {
	ID          flexID     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IconURL     string     `json:"icon_url"`
	UnlockedAt  *time.Time `json:"unlocked_at"`
}

type favoriteWire struct {
	IsFavorite bool `json:"is_favorite"`
}

type unlockRequestWire struct {
	UUID string `json:"uuid"`
}

type unlockResponseWire struct {
	Character    characterWire     `json:"character"`
	Relationship *relationshipWire `json:"relationship"`
}

// toCharacter maps a wire character. Locked characters keep only their
// identity and thumbnail.
func (w characterWire) toCharacter() domain.Character {
	if w.IsLocked {
		return domain.Character{
			ID:           string(w.ID),
			ThumbnailURL: w.ThumbnailURL,
			IsLocked:     true,
		}
	}
	return domain.Character{
		ID:             string(w.ID),
		Name:           w.Name,
		Age:            w.Age,
		Gender:         domain.ConvertGenderFromNumber(w.Gender),
		OccupationID:   string(w.OccupationID),
		MunicipalityID: string(w.MunicipalityID),
		ImageURL:       w.ImageURL,
		ThumbnailURL:   w.ThumbnailURL,
		Introduction:   w.Introduction,
		Likes:          w.Likes,
		Dislikes:       w.Dislikes,
		Personality:    w.Personality,
	}
}

func (w characterWire) toProfile() domain.Profile {
	p := domain.Profile{Character: w.toCharacter()}
	if w.Relationship != nil {
		rel := w.Relationship.toRelationship(string(w.ID))
		p.Relationship = &rel
	}
	return p
}

// toRelationship maps a wire relationship; fallbackID fills in a missing
// character_id.
func (w relationshipWire) toRelationship(fallbackID string) domain.Relationship {
	id := string(w.CharacterID)
	if id == "" {
		id = fallbackID
	}
	rel := domain.Relationship{
		CharacterID:        id,
		TrustLevelID:       w.TrustLevelID,
		TrustPoints:        w.TrustPoints,
		NextLevelPoints:    w.NextLevelPoints,
		ConversationCount:  w.ConversationCount,
		LastConversationAt: w.LastConversationAt,
		IsFavorite:         w.IsFavorite,
	}
	if w.FirstMetAt != nil {
		rel.FirstMetAt = *w.FirstMetAt
	}
	return rel
}

// toStory maps a wire story. IsUnlocked is always false here; callers gate it
// against the current relationship.
func (w storyWire) toStory(fallbackCharacterID string) domain.Story {
	cid := string(w.CharacterID)
	if cid == "" {
		cid = fallbackCharacterID
	}
	return domain.Story{
		ID:                 string(w.ID),
		CharacterID:        cid,
		Title:              w.Title,
		Content:            w.Content,
		RequiredTrustLevel: w.RequiredTrustLevel,
		IsUnlocked:         false,
	}
}

func (w messageWire) toMessage() domain.ChatMessage {
	role := domain.Role(w.Role)
	switch role {
	case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
	default:
		role = domain.RoleAssistant
	}
	return domain.ChatMessage{Role: role, Content: w.Response}
}

func fromMessages(in []domain.ChatMessage) []messageWire {
	out := make([]messageWire, 0, len(in))
	for _, m := range in {
		out = append(out, messageWire{Role: string(m.Role), Response: m.Content})
	}
	return out
}
