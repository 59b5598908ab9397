// Package utils holds query-string parsing helpers shared by the handlers.
package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ErrOutOfRange is returned by IntInRange for values outside [lo, hi].
var ErrOutOfRange = errors.New("value out of range")

// IntInRange parses a trimmed query value. Empty input yields def; anything
// that is not an integer in [lo, hi] is an error.
func IntInRange(s string, def, lo, hi int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def, err
	}
	if n < lo || n > hi {
		return def, ErrOutOfRange
	}
	return n, nil
}
