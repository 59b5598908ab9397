// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes give clients a stable, machine-readable error taxonomy next to
// the human-readable message. Codes are lowercase snake_case; generic ones
// mirror HTTP status semantics, the rest name a specific failure of this API.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "send_in_progress",
//	  "message": "a message is already being sent"
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tasuki-companion/internal/http/middleware"
	"github.com/tbourn/go-tasuki-companion/internal/services"
)

// The middleware emits two more codes on its own: rate_limited (429) and
// bad_idempotency_key (400).
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeInternal   = "internal_error"

	ErrCodeInvalidSort      = "invalid_sort"
	ErrCodeInvalidTag       = "invalid_tag"
	ErrCodeTagNotRecognized = "tag_not_recognized"
	ErrCodeSendInProgress   = "send_in_progress"
	ErrCodeUpstreamFailed   = "upstream_failed"
	ErrCodeClientClosed     = "client_closed_request"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// statusClientClosedRequest is nginx's non-standard status for a client that
// went away before the response was written.
const statusClientClosedRequest = 499

// failService translates a service error into the HTTP error envelope.
func failService(c *gin.Context, err error) {
	if c.Request.Context().Err() != nil || errors.Is(err, context.Canceled) {
		fail(c, statusClientClosedRequest, ErrCodeClientClosed, "request cancelled")
		return
	}
	switch {
	case errors.Is(err, services.ErrCharacterNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "character not found")
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidSortKey):
		fail(c, http.StatusBadRequest, ErrCodeInvalidSort, err.Error())
	case errors.Is(err, services.ErrInvalidTagUUID):
		fail(c, http.StatusBadRequest, ErrCodeInvalidTag, err.Error())
	case errors.Is(err, services.ErrTagNotRecognized):
		fail(c, http.StatusNotFound, ErrCodeTagNotRecognized, err.Error())
	case errors.Is(err, services.ErrSendInProgress):
		fail(c, http.StatusConflict, ErrCodeSendInProgress, err.Error())
	case errors.Is(err, services.ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		middleware.LoggerFrom(c).Warn().Err(err).Msg("upstream call failed")
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "upstream request failed")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unmapped service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
