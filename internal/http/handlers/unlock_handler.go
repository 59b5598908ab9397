// Unlock and session HTTP handlers.
//
//   - POST /unlock?uuid=...       (NFC tag unlock)
//   - GET  /unlocks/new           (characters unlocked since the last bootstrap)
//   - POST /session/bootstrap     (app start; clears the newly-unlocked set)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/services"
)

// NewUnlocksResponse lists character IDs unlocked since the last bootstrap,
// newest first.
type NewUnlocksResponse struct {
	CharacterIDs []string `json:"characterIds"`
}

// BootstrapResponse reports how many new-unlock marks were cleared.
type BootstrapResponse struct {
	Cleared int64 `json:"cleared"`
}

// Unlock godoc
// @ID          unlockCharacter
// @Summary     Unlock a character with an NFC tag
// @Description Validates the tag UUID, unlocks the character upstream, marks it as new and
// @Description pushes a new_character event to the user's websocket subscribers.
// @Tags        Unlock
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       uuid       query   string  true  "NFC tag UUID"  format(uuid)
//
// @Success     200  {object}  domain.Profile
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed tag"
// @Failure     404  {object}  handlers.ErrorResponse  "Tag not recognized"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /unlock [post]
func (h *Handlers) Unlock(c *gin.Context) {
	tag := strings.TrimSpace(c.Query("uuid"))
	if tag == "" {
		fail(c, http.StatusBadRequest, ErrCodeInvalidTag, "uuid query parameter required")
		return
	}
	p, err := h.unlocks.Unlock(c.Request.Context(), userID(c), tag)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// ListNewUnlocks godoc
// @ID          listNewUnlocks
// @Summary     Newly unlocked characters
// @Description Returns characters unlocked since the last bootstrap. Supports weak ETag via If-None-Match.
// @Tags        Unlock
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object}  handlers.NewUnlocksResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /unlocks/new [get]
func (h *Handlers) ListNewUnlocks(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	var db *gorm.DB
	if svc, ok := h.unlocks.(*services.UnlockService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.NewUnlocksStats(ctx, db, uid)
		if err == nil && notModified(c, fmt.Sprintf("unlocks:%s", uid), count, maxTS) {
			return
		}
	}

	ids, err := h.unlocks.NewUnlocks(ctx, uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, NewUnlocksResponse{CharacterIDs: ids})
}

// Bootstrap godoc
// @ID          bootstrapSession
// @Summary     App start
// @Description Called once when the app starts. Clears the newly-unlocked set.
// @Tags        Unlock
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Success     200  {object}  handlers.BootstrapResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /session/bootstrap [post]
func (h *Handlers) Bootstrap(c *gin.Context) {
	n, err := h.unlocks.Bootstrap(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, BootstrapResponse{Cleared: n})
}

var _ UnlockService = (*services.UnlockService)(nil)
