// Chat HTTP handlers.
//
// This file exposes the conversation endpoints of a character:
//   - GET  /characters/{id}/chat   (open the session: history + relationship)
//   - POST /characters/{id}/chat   (send one message, get the turn result)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a successful turn was
// recorded for (user, character, key), the handler replays that turn verbatim
// and sets `Idempotency-Replayed: true` instead of talking to the character
// again. Failed turns are not recorded, so a retry after a failure is a fresh
// attempt.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/http/middleware"
	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/services"
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for one chat turn.
type SendMessageRequest struct {
	// Message is what the user says. It must be non-empty.
	Message string `json:"message" binding:"required,min=1" example:"おすすめの桃の食べ方は？"`
}

// ChatSessionResponse is the state of a conversation when the page opens.
type ChatSessionResponse struct {
	Messages     []domain.ChatMessage  `json:"messages"`
	Relationship *domain.Relationship  `json:"relationship,omitempty"`
	State        services.SessionState `json:"state"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text: CRLF/CR become LF, runs of 3+ LFs
// collapse to two, surrounding whitespace is trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxMessageRunes inspects the concrete ChatService for a configured
// message-length limit. If unavailable, it returns a conservative fallback.
func discoverMaxMessageRunes(svc ChatService) int {
	const fallback = 1000
	if cs, ok := svc.(*services.ChatService); ok && cs.MaxMessageRunes > 0 {
		return cs.MaxMessageRunes
	}
	return fallback
}

//
// Handlers
//

// OpenChat godoc
// @ID          openChat
// @Summary     Open a conversation
// @Description Loads the chat history with the character and the current relationship.
// @Tags        Chat
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Character ID"
//
// @Success     200  {object}  handlers.ChatSessionResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /characters/{id}/chat [get]
func (h *Handlers) OpenChat(c *gin.Context) {
	id, valid := characterID(c)
	if !valid {
		return
	}
	uid := userID(c)

	msgs, rel, err := h.chat.Open(c.Request.Context(), uid, id)
	if err != nil {
		failService(c, err)
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	ok(c, http.StatusOK, ChatSessionResponse{
		Messages:     msgs,
		Relationship: rel,
		State:        h.chat.State(uid, id),
	})
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message to a character
// @Description Runs one chat turn. A transport failure is reported in-band: status "failed"
// @Description with a system reply. When the trust level rises, levelUp is true and a
// @Description level_up event is pushed to the user's websocket subscribers.
// @Description Supports idempotency via the Idempotency-Key header (same key → same turn).
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Character ID"
// @Param       body             body    handlers.SendMessageRequest  true  "User message"
//
// @Success     200  {object}  services.TurnResult
// @Header      200  {string}  Idempotency-Replayed  "true when the turn was replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Failure     409  {object}  handlers.ErrorResponse  "A message is already being sent"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /characters/{id}/chat [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	id, valid := characterID(c)
	if !valid {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	content := sanitizeContent(req.Message)
	maxRunes := discoverMaxMessageRunes(h.chat)
	if utf8.RuneCountInString(content) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		return
	}
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	uid := userID(c)

	// Idempotency (replay path).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.idemDB != nil {
		rec, err := repo.GetIdempotency(ctx, h.idemDB, uid, id, idemKey, time.Now().UTC())
		if err == nil && rec != nil {
			c.Header("Idempotency-Replayed", "true")
			c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Response))
			return
		}
	}

	res, err := h.chat.Send(ctx, uid, id, content)
	if err != nil {
		failService(c, err)
		return
	}

	// Idempotency (store path), best effort and successful turns only.
	if idemKey != "" && h.idemDB != nil && res.Status == services.StateSuccess {
		if body, err := json.Marshal(res); err == nil {
			if _, err := repo.CreateIdempotency(ctx, h.idemDB, uid, id, idemKey, string(body), http.StatusOK, h.idemTTL); err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Str("character_id", id).Msg("record idempotent turn")
			}
		}
	}

	ok(c, http.StatusOK, res)
}

var _ ChatService = (*services.ChatService)(nil)
