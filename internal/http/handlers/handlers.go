// Package handlers implements the HTTP endpoints of the companion API.
//
// Handlers are transport-thin: they parse and validate input, call the
// application services through the narrow interfaces below, and translate
// results (and service errors) into JSON responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/roster"
	"github.com/tbourn/go-tasuki-companion/internal/services"
)

//
// Service contracts (context-aware)
//

// CharacterService serves the roster, character detail and stories.
type CharacterService interface {
	List(ctx context.Context, userID string, f roster.Filter, key roster.SortKey) (*services.Roster, error)
	ListLocked(ctx context.Context) ([]domain.Profile, error)
	Get(ctx context.Context, userID, characterID string) (*services.RosterEntry, error)
	Stories(ctx context.Context, userID, characterID string) ([]domain.Story, error)
}

// ChatService runs chat sessions.
//
// Implementations must be safe for concurrent use and must honor the
// provided context: a cancelled Send leaves no trace.
type ChatService interface {
	Open(ctx context.Context, userID, characterID string) ([]domain.ChatMessage, *domain.Relationship, error)
	State(userID, characterID string) services.SessionState
	Send(ctx context.Context, userID, characterID, message string) (*services.TurnResult, error)
}

// FavoriteService maintains the user's favorite set.
type FavoriteService interface {
	Toggle(ctx context.Context, userID, characterID string) (bool, error)
	Set(ctx context.Context, userID, characterID string, favorite bool) (bool, error)
	List(ctx context.Context, userID string) ([]string, error)
}

// UnlockService handles NFC unlocks and the newly-unlocked set.
type UnlockService interface {
	Unlock(ctx context.Context, userID, tagUUID string) (*domain.Profile, error)
	NewUnlocks(ctx context.Context, userID string) ([]string, error)
	Bootstrap(ctx context.Context, userID string) (int64, error)
}

// CatalogService passes reference data through from the upstream API.
type CatalogService interface {
	Municipalities(ctx context.Context, prefectureID string) ([]domain.Municipality, error)
	Occupations(ctx context.Context) ([]domain.Occupation, error)
	Events(ctx context.Context, fukushimaWeeks bool) ([]domain.Event, error)
	Achievements(ctx context.Context, unlocked bool) ([]domain.Achievement, error)
}

// EventStream upgrades a request into a push channel for userID's events.
type EventStream interface {
	Serve(c *gin.Context, userID string)
}

//
// Handler wiring
//

// Handlers groups every endpoint of the API.
type Handlers struct {
	chars   CharacterService
	chat    ChatService
	favs    FavoriteService
	unlocks UnlockService
	catalog CatalogService

	events EventStream

	idemDB  *gorm.DB
	idemTTL time.Duration
}

// New constructs Handlers bound to the given services.
func New(chars CharacterService, chat ChatService, favs FavoriteService, unlocks UnlockService, catalog CatalogService) *Handlers {
	return &Handlers{chars: chars, chat: chat, favs: favs, unlocks: unlocks, catalog: catalog}
}

// WithEvents enables GET /events/ws.
func (h *Handlers) WithEvents(es EventStream) *Handlers {
	h.events = es
	return h
}

// WithIdempotency records successful chat turns in db so that a POST retried
// with the same Idempotency-Key within ttl replays the original turn.
func (h *Handlers) WithIdempotency(db *gorm.DB, ttl time.Duration) *Handlers {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	h.idemDB = db
	h.idemTTL = ttl
	return h
}

// userID returns the id middleware.Credentials derived from the caller's
// bearer token. Without one it falls back to the X-User-ID header (demo and
// tests), then "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// characterID returns the trimmed :id path parameter, failing the request
// with 400 when it is blank.
func characterID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "character id required")
		return "", false
	}
	return id, true
}
