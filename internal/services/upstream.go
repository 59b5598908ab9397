package services

import (
	"context"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// The interfaces below list the remote calls each service needs.
// *tasuki.Client satisfies all of them.

// CharacterAPI is the upstream contract required by CharacterService.
type CharacterAPI interface {
	GetCharacters(ctx context.Context) ([]domain.Profile, error)
	GetLockedCharacters(ctx context.Context) ([]domain.Profile, error)
	GetRelationship(ctx context.Context, characterID string) (domain.Relationship, error)
	GetStories(ctx context.Context, characterID string) ([]domain.Story, error)
	GetLockedStories(ctx context.Context, characterID string) ([]domain.Story, error)
	GetMunicipalities(ctx context.Context, prefectureID string) ([]domain.Municipality, error)
}

// ChatAPI is the upstream contract required by ChatService.
type ChatAPI interface {
	GetChatHistory(ctx context.Context, characterID string) ([]domain.ChatMessage, error)
	SendChat(ctx context.Context, characterID, message string, history []domain.ChatMessage) (domain.ChatMessage, error)
	GetRelationship(ctx context.Context, characterID string) (domain.Relationship, error)
}

// FavoriteAPI is the upstream contract required by FavoriteService.
type FavoriteAPI interface {
	UpdateFavorite(ctx context.Context, characterID string, favorite bool) error
}

// UnlockAPI is the upstream contract required by UnlockService.
type UnlockAPI interface {
	CheckUnlock(ctx context.Context, tagUUID string) (domain.Profile, error)
}

// CatalogAPI is the upstream contract required by CatalogService.
type CatalogAPI interface {
	GetMunicipalities(ctx context.Context, prefectureID string) ([]domain.Municipality, error)
	GetOccupations(ctx context.Context) ([]domain.Occupation, error)
	GetEvents(ctx context.Context) ([]domain.Event, error)
	GetFukushimaWeeksEvents(ctx context.Context) ([]domain.Event, error)
	GetUnlockedAchievements(ctx context.Context) ([]domain.Achievement, error)
	GetLockedAchievements(ctx context.Context) ([]domain.Achievement, error)
}
