// Character HTTP handlers.
//
// This file exposes the roster and per-character read endpoints:
//   - GET /characters              (filtered, sorted roster with histogram)
//   - GET /characters/locked       (characters not met yet)
//   - GET /characters/{id}         (detail + relationship)
//   - GET /characters/{id}/stories (stories with trust-level gating applied)
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/roster"
	"github.com/tbourn/go-tasuki-companion/internal/services"
	"github.com/tbourn/go-tasuki-companion/internal/utils"
)

// LockedCharactersResponse wraps the locked roster.
type LockedCharactersResponse struct {
	Characters []domain.Profile `json:"characters"`
}

// StoriesResponse wraps a character's stories.
type StoriesResponse struct {
	Stories []domain.Story `json:"stories"`
}

// parseRosterQuery reads the roster filter and sort from the query string.
// It writes a 400 and returns false on invalid input.
func parseRosterQuery(c *gin.Context) (roster.Filter, roster.SortKey, bool) {
	var f roster.Filter
	f.MunicipalityID = strings.TrimSpace(c.Query("municipality"))

	if g := strings.TrimSpace(c.Query("gender")); g != "" {
		gender, ok := parseGender(g)
		if !ok {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "gender must be male, female or other")
			return f, "", false
		}
		f.Gender = gender
	}

	if l := strings.TrimSpace(c.Query("locked")); l != "" {
		b, err := strconv.ParseBool(l)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "locked must be a boolean")
			return f, "", false
		}
		f.Locked = &b
	}

	lvl, err := utils.IntInRange(c.Query("trust_level"), 0, 1, domain.MaxTrustLevel)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "trust_level must be between 1 and 5")
		return f, "", false
	}
	f.TrustLevel = lvl

	key, err := roster.ParseSortKey(c.Query("sort"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidSort, "sort must be one of trustLevel, lastConversation, name, city")
		return f, "", false
	}
	return f, key, true
}

// parseGender accepts the normalized names and the upstream's numeric codes.
func parseGender(s string) (domain.Gender, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 2 {
			return "", false
		}
		return domain.ConvertGenderFromNumber(n), true
	}
	switch g := domain.Gender(strings.ToLower(s)); g {
	case domain.GenderMale, domain.GenderFemale, domain.GenderOther:
		return g, true
	}
	return "", false
}

// ListCharacters godoc
// @ID          listCharacters
// @Summary     Roster of characters
// @Description Returns the user's characters filtered and sorted, with new/favorite flags
// @Description and the trust-level histogram over every unlocked character.
// @Tags        Characters
// @Produce     json
//
// @Param       X-User-ID     header  string  false "User ID (demo header)"  example(user123)
// @Param       municipality  query   string  false "Municipality ID"
// @Param       gender        query   string  false "male, female or other"  Enums(male, female, other)
// @Param       locked        query   bool    false "Keep only locked (true) or unlocked (false) characters"
// @Param       trust_level   query   int     false "Keep only this trust level"  minimum(1) maximum(5)
// @Param       sort          query   string  false "Sort key"  Enums(trustLevel, lastConversation, name, city) default(trustLevel)
//
// @Success     200  {object}  services.Roster
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /characters [get]
func (h *Handlers) ListCharacters(c *gin.Context) {
	f, key, valid := parseRosterQuery(c)
	if !valid {
		return
	}
	res, err := h.chars.List(c.Request.Context(), userID(c), f, key)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ListLockedCharacters godoc
// @ID          listLockedCharacters
// @Summary     Locked characters
// @Description Returns characters the user has not unlocked yet. Only id, thumbnail and lock state are exposed.
// @Tags        Characters
// @Produce     json
// @Success     200  {object}  handlers.LockedCharactersResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /characters/locked [get]
func (h *Handlers) ListLockedCharacters(c *gin.Context) {
	items, err := h.chars.ListLocked(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Profile{}
	}
	ok(c, http.StatusOK, LockedCharactersResponse{Characters: items})
}

// GetCharacter godoc
// @ID          getCharacter
// @Summary     Character detail
// @Tags        Characters
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Character ID"
//
// @Success     200  {object}  services.RosterEntry
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /characters/{id} [get]
func (h *Handlers) GetCharacter(c *gin.Context) {
	id, valid := characterID(c)
	if !valid {
		return
	}
	entry, err := h.chars.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, entry)
}

// ListStories godoc
// @ID          listStories
// @Summary     Character stories
// @Description Returns every story of the character. Stories above the current trust level
// @Description are returned locked, with title "???" and placeholder content.
// @Tags        Characters
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Character ID"
//
// @Success     200  {object}  handlers.StoriesResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /characters/{id}/stories [get]
func (h *Handlers) ListStories(c *gin.Context) {
	id, valid := characterID(c)
	if !valid {
		return
	}
	stories, err := h.chars.Stories(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	if stories == nil {
		stories = []domain.Story{}
	}
	ok(c, http.StatusOK, StoriesResponse{Stories: stories})
}

var _ CharacterService = (*services.CharacterService)(nil)
