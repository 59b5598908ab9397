package tasuki

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// ErrEmptyReply is returned when the chat endpoint answers without text.
var ErrEmptyReply = errors.New("tasuki: empty chat reply")

// GetCharacters lists the characters the user has unlocked, each with the
// user's relationship when the upstream embeds one.
func (c *Client) GetCharacters(ctx context.Context) ([]domain.Profile, error) {
	return c.listProfiles(ctx, "get_characters", "/characters")
}

// GetLockedCharacters lists characters the user has not unlocked yet.
func (c *Client) GetLockedCharacters(ctx context.Context) ([]domain.Profile, error) {
	return c.listProfiles(ctx, "get_locked_characters", "/characters/locked")
}

func (c *Client) listProfiles(ctx context.Context, op, path string) ([]domain.Profile, error) {
	var wire []characterWire
	if err := c.getJSON(ctx, op, path, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Profile, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toProfile())
	}
	return out, nil
}

// GetRelationship returns the user's relationship with characterID.
func (c *Client) GetRelationship(ctx context.Context, characterID string) (domain.Relationship, error) {
	var wire relationshipWire
	if err := c.getJSON(ctx, "get_relationship", "/characters/"+url.PathEscape(characterID), &wire); err != nil {
		return domain.Relationship{}, err
	}
	return wire.toRelationship(characterID), nil
}

// GetStories lists the stories of characterID.
func (c *Client) GetStories(ctx context.Context, characterID string) ([]domain.Story, error) {
	return c.listStories(ctx, "get_stories", "/characters/"+url.PathEscape(characterID)+"/stories", characterID)
}

// GetLockedStories lists the stories of characterID the user cannot read yet.
func (c *Client) GetLockedStories(ctx context.Context, characterID string) ([]domain.Story, error) {
	return c.listStories(ctx, "get_locked_stories", "/characters/"+url.PathEscape(characterID)+"/stories/locked", characterID)
}

func (c *Client) listStories(ctx context.Context, op, path, characterID string) ([]domain.Story, error) {
	var wire []storyWire
	if err := c.getJSON(ctx, op, path, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Story, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toStory(characterID))
	}
	return out, nil
}

// GetChatHistory returns the persisted conversation with characterID.
func (c *Client) GetChatHistory(ctx context.Context, characterID string) ([]domain.ChatMessage, error) {
	var wire []messageWire
	if err := c.getJSON(ctx, "get_chat_history", "/tasuki/chat/"+url.PathEscape(characterID), &wire); err != nil {
		return nil, err
	}
	out := make([]domain.ChatMessage, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toMessage())
	}
	return out, nil
}

// SendChat sends one user message together with the full prior history and
// returns the assistant's reply.
func (c *Client) SendChat(ctx context.Context, characterID, message string, history []domain.ChatMessage) (domain.ChatMessage, error) {
	req := sendChatWire{
		Role:     string(domain.RoleUser),
		Response: message,
		History:  fromMessages(history),
	}
	var wire messageWire
	if err := c.do(ctx, "send_chat", http.MethodPost, "/tasuki/chat/"+url.PathEscape(characterID), req, &wire); err != nil {
		return domain.ChatMessage{}, err
	}
	if wire.Response == "" {
		return domain.ChatMessage{}, ErrEmptyReply
	}
	if wire.Role == "" {
		wire.Role = string(domain.RoleAssistant)
	}
	return wire.toMessage(), nil
}

// UpdateFavorite sets the favorite flag of characterID upstream.
func (c *Client) UpdateFavorite(ctx context.Context, characterID string, favorite bool) error {
	return c.do(ctx, "update_favorite", http.MethodPut, "/characters/"+url.PathEscape(characterID)+"/favorite", favoriteWire{IsFavorite: favorite}, nil)
}

// CheckUnlock submits an NFC tag UUID. On success the upstream has created a
// relationship with a previously locked character and returns both.
func (c *Client) CheckUnlock(ctx context.Context, tagUUID string) (domain.Profile, error) {
	var wire unlockResponseWire
	if err := c.do(ctx, "check_unlock", http.MethodPost, "/characters/unlock", unlockRequestWire{UUID: tagUUID}, &wire); err != nil {
		return domain.Profile{}, err
	}
	wire.Character.IsLocked = false
	p := domain.Profile{Character: wire.Character.toCharacter()}
	if wire.Relationship != nil {
		rel := wire.Relationship.toRelationship(p.ID)
		p.Relationship = &rel
	}
	return p, nil
}

// GetMunicipalities lists the municipalities of a prefecture.
func (c *Client) GetMunicipalities(ctx context.Context, prefectureID string) ([]domain.Municipality, error) {
	var wire []municipalityWire
	if err := c.getJSON(ctx, "get_municipalities", "/cities/prefectures/"+url.PathEscape(prefectureID), &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Municipality, 0, len(wire))
	for _, w := range wire {
		pref := string(w.PrefectureID)
		if pref == "" {
			pref = prefectureID
		}
		out = append(out, domain.Municipality{ID: string(w.ID), Name: w.Name, PrefectureID: pref})
	}
	return out, nil
}

// GetOccupations lists all occupations.
func (c *Client) GetOccupations(ctx context.Context) ([]domain.Occupation, error) {
	var wire []occupationWire
	if err := c.getJSON(ctx, "get_occupations", "/occupations", &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Occupation, 0, len(wire))
	for _, w := range wire {
		out = append(out, domain.Occupation{ID: string(w.ID), Name: w.Name})
	}
	return out, nil
}

// GetEvents lists regional events.
func (c *Client) GetEvents(ctx context.Context) ([]domain.Event, error) {
	return c.listEvents(ctx, "get_events", "/events")
}

// GetFukushimaWeeksEvents lists the events of the Fukushima weeks campaign.
func (c *Client) GetFukushimaWeeksEvents(ctx context.Context) ([]domain.Event, error) {
	return c.listEvents(ctx, "get_fukushima_weeks_events", "/events/fukushima-weeks")
}

func (c *Client) listEvents(ctx context.Context, op, path string) ([]domain.Event, error) {
	var wire []eventWire
	if err := c.getJSON(ctx, op, path, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(wire))
	for _, w := range wire {
		out = append(out, domain.Event{
			ID:             string(w.ID),
			Title:          w.Title,
			Description:    w.Description,
			StartsAt:       w.StartDate,
			EndsAt:         w.EndDate,
			MunicipalityID: string(w.MunicipalityID),
			ImageURL:       w.ImageURL,
		})
	}
	return out, nil
}

// GetUnlockedAchievements lists achievements the user has earned.
func (c *Client) GetUnlockedAchievements(ctx context.Context) ([]domain.Achievement, error) {
	return c.listAchievements(ctx, "get_unlocked_achievements", "/achivements/unlocked", true)
}

// GetLockedAchievements lists achievements the user has not earned yet.
func (c *Client) GetLockedAchievements(ctx context.Context) ([]domain.Achievement, error) {
	return c.listAchievements(ctx, "get_locked_achievements", "/achivements/locked", false)
}

// listAchievements maps achievements; the upstream path is spelled
// "achivements".
func (c *Client) listAchievements(ctx context.Context, op, path string, unlocked bool) ([]domain.Achievement, error) {
	var wire []achievementWire
	if err := c.getJSON(ctx, op, path, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Achievement, 0, len(wire))
	for _, w := range wire {
		a := domain.Achievement{
			ID:          string(w.ID),
			Title:       w.Title,
			Description: w.Description,
			IconURL:     w.IconURL,
			IsUnlocked:  unlocked,
		}
		if unlocked {
			a.UnlockedAt = w.UnlockedAt
		}
		out = append(out, a)
	}
	return out, nil
}
