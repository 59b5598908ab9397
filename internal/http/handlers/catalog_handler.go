// Catalog and event-stream HTTP handlers.
//
// The catalog endpoints pass upstream reference data through unchanged:
// municipalities, occupations, events and achievements.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/services"
)

// MunicipalitiesResponse wraps a prefecture's municipalities.
type MunicipalitiesResponse struct {
	Municipalities []domain.Municipality `json:"municipalities"`
}

// OccupationsResponse wraps the occupation catalog.
type OccupationsResponse struct {
	Occupations []domain.Occupation `json:"occupations"`
}

// EventsResponse wraps a list of regional events.
type EventsResponse struct {
	Events []domain.Event `json:"events"`
}

// AchievementsResponse wraps a list of achievements.
type AchievementsResponse struct {
	Achievements []domain.Achievement `json:"achievements"`
}

// ListMunicipalities godoc
// @ID          listMunicipalities
// @Summary     Municipalities of a prefecture
// @Tags        Catalog
// @Produce     json
// @Param       prefectureId  path  string  true  "Prefecture ID"  example(7)
// @Success     200  {object}  handlers.MunicipalitiesResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /municipalities/{prefectureId} [get]
func (h *Handlers) ListMunicipalities(c *gin.Context) {
	pref := strings.TrimSpace(c.Param("prefectureId"))
	items, err := h.catalog.Municipalities(c.Request.Context(), pref)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Municipality{}
	}
	ok(c, http.StatusOK, MunicipalitiesResponse{Municipalities: items})
}

// ListOccupations godoc
// @ID          listOccupations
// @Summary     Occupation catalog
// @Tags        Catalog
// @Produce     json
// @Success     200  {object}  handlers.OccupationsResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /occupations [get]
func (h *Handlers) ListOccupations(c *gin.Context) {
	items, err := h.catalog.Occupations(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Occupation{}
	}
	ok(c, http.StatusOK, OccupationsResponse{Occupations: items})
}

// ListEvents godoc
// @ID          listEvents
// @Summary     Regional events
// @Tags        Catalog
// @Produce     json
// @Success     200  {object}  handlers.EventsResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /events [get]
func (h *Handlers) ListEvents(c *gin.Context) { h.listEvents(c, false) }

// ListFukushimaWeeksEvents godoc
// @ID          listFukushimaWeeksEvents
// @Summary     Fukushima Weeks events
// @Tags        Catalog
// @Produce     json
// @Success     200  {object}  handlers.EventsResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /events/fukushima-weeks [get]
func (h *Handlers) ListFukushimaWeeksEvents(c *gin.Context) { h.listEvents(c, true) }

func (h *Handlers) listEvents(c *gin.Context, fukushimaWeeks bool) {
	items, err := h.catalog.Events(c.Request.Context(), fukushimaWeeks)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Event{}
	}
	ok(c, http.StatusOK, EventsResponse{Events: items})
}

// ListUnlockedAchievements godoc
// @ID          listUnlockedAchievements
// @Summary     Unlocked achievements
// @Tags        Catalog
// @Produce     json
// @Success     200  {object}  handlers.AchievementsResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /achievements/unlocked [get]
func (h *Handlers) ListUnlockedAchievements(c *gin.Context) { h.listAchievements(c, true) }

// ListLockedAchievements godoc
// @ID          listLockedAchievements
// @Summary     Locked achievements
// @Tags        Catalog
// @Produce     json
// @Success     200  {object}  handlers.AchievementsResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failed"
// @Router      /achievements/locked [get]
func (h *Handlers) ListLockedAchievements(c *gin.Context) { h.listAchievements(c, false) }

func (h *Handlers) listAchievements(c *gin.Context, unlocked bool) {
	items, err := h.catalog.Achievements(c.Request.Context(), unlocked)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Achievement{}
	}
	ok(c, http.StatusOK, AchievementsResponse{Achievements: items})
}

// StreamEvents godoc
// @ID          streamEvents
// @Summary     Progression event stream
// @Description Upgrades to a websocket and pushes level_up and new_character events for the user.
// @Description Browsers cannot set headers on a websocket handshake, so the caller's bearer
// @Description token may instead be passed as the access_token query parameter.
// @Tags        Events
// @Param       Authorization  header  string  false "Bearer token"
// @Param       access_token   query   string  false "Bearer token for browser clients"
// @Success     101  {string}  string "Switching Protocols"
// @Failure     404  {object}  handlers.ErrorResponse  "Event stream disabled"
// @Router      /events/ws [get]
func (h *Handlers) StreamEvents(c *gin.Context) {
	if h.events == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "event stream disabled")
		return
	}
	h.events.Serve(c, userID(c))
}

var _ CatalogService = (*services.CatalogService)(nil)
