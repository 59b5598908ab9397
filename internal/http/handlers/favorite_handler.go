// Favorite HTTP handlers.
//
//   - PUT /characters/{id}/favorite  (toggle, or set with {"is_favorite": bool})
//   - GET /favorites                 (list, weak ETag support)
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/services"
)

// UpdateFavoriteRequest optionally pins the desired state. Without a body
// the endpoint toggles.
type UpdateFavoriteRequest struct {
	IsFavorite *bool `json:"is_favorite" example:"true"`
}

// FavoriteResponse is the favorite state after the update.
type FavoriteResponse struct {
	CharacterID string `json:"characterId"`
	IsFavorite  bool   `json:"isFavorite"`
}

// FavoritesResponse lists favorite character IDs, oldest first.
type FavoritesResponse struct {
	CharacterIDs []string `json:"characterIds"`
}

// UpdateFavorite godoc
// @ID          updateFavorite
// @Summary     Toggle or set a favorite
// @Description Flips the favorite state, or sets it when is_favorite is given. The change is
// @Description synced upstream; if that fails the local state is left unchanged.
// @Tags        Favorites
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Character ID"
// @Param       body       body    handlers.UpdateFavoriteRequest  false  "Desired state"
//
// @Success     200  {object}  handlers.FavoriteResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /characters/{id}/favorite [put]
func (h *Handlers) UpdateFavorite(c *gin.Context) {
	id, valid := characterID(c)
	if !valid {
		return
	}

	var req UpdateFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)

	var (
		fav bool
		err error
	)
	if req.IsFavorite != nil {
		fav, err = h.favs.Set(ctx, uid, id, *req.IsFavorite)
	} else {
		fav, err = h.favs.Toggle(ctx, uid, id)
	}
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, FavoriteResponse{CharacterID: id, IsFavorite: fav})
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     Favorite characters
// @Description Returns favorite character IDs. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Favorites
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object}  handlers.FavoritesResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.favs.(*services.FavoriteService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.FavoritesStats(ctx, db, uid)
		if err == nil && notModified(c, fmt.Sprintf("favorites:%s", uid), count, maxTS) {
			return
		}
	}

	ids, err := h.favs.List(ctx, uid)
	if err != nil {
		failService(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	ok(c, http.StatusOK, FavoritesResponse{CharacterIDs: ids})
}

var _ FavoriteService = (*services.FavoriteService)(nil)
