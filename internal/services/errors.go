// Package services defines the business logic for characters, chat sessions,
// favorites, NFC unlocks and catalog lookups. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-tasuki-companion/internal/tasuki"
)

var (
	// ErrCharacterNotFound indicates that the upstream does not know the
	// character, or the user has no access to it.
	ErrCharacterNotFound = errors.New("character not found")

	// ErrEmptyMessage is returned when a chat message is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a chat message exceeds the configured limit.
	ErrTooLong = errors.New("message too long")

	// ErrSendInProgress is returned when a message is sent while the previous
	// turn of the same session has not completed.
	ErrSendInProgress = errors.New("a message is already being sent")

	// ErrInvalidTagUUID is returned when an NFC tag payload is not a UUID.
	ErrInvalidTagUUID = errors.New("tag is not a valid uuid")

	// ErrTagNotRecognized is returned when the upstream rejects an NFC tag.
	ErrTagNotRecognized = errors.New("tag not recognized")

	// ErrInvalidSortKey is returned for an unsupported roster sort key.
	ErrInvalidSortKey = errors.New("invalid sort key")

	// ErrUpstream wraps any failure talking to the remote API that is not a
	// more specific condition above.
	ErrUpstream = errors.New("upstream request failed")
)

// upstreamErr tags err as an upstream failure, keeping the original in the
// chain for logging and errors.As.
func upstreamErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

// characterErr maps a per-character upstream error: 404 becomes
// ErrCharacterNotFound, everything else ErrUpstream.
func characterErr(err error) error {
	if tasuki.IsNotFound(err) {
		return ErrCharacterNotFound
	}
	return upstreamErr(err)
}
