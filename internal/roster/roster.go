// Package roster – derived views over the character list
//
// This package holds the pure functions that turn the raw list of characters
// (each paired with the user's relationship, if any) into what the roster
// page shows: a filtered and sorted list, a per-trust-level histogram, and
// the "days since we last talked" counter. Nothing here performs I/O; callers
// pass in everything, so every view is recomputed from current inputs on each
// request.
package roster

import (
	"errors"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// SortKey selects the ordering applied by Apply.
type SortKey string

const (
	SortTrustLevel       SortKey = "trustLevel"
	SortLastConversation SortKey = "lastConversation"
	SortName             SortKey = "name"
	SortCity             SortKey = "city"
)

// DefaultSort is used when the request names no sort key.
const DefaultSort = SortTrustLevel

// ErrUnknownSortKey is returned by ParseSortKey for unsupported keys.
var ErrUnknownSortKey = errors.New("unknown sort key")

// ParseSortKey validates s. An empty string yields DefaultSort.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return DefaultSort, nil
	case SortTrustLevel, SortLastConversation, SortName, SortCity:
		return k, nil
	default:
		return "", ErrUnknownSortKey
	}
}

// Filter narrows the roster. Zero-valued fields do not filter.
type Filter struct {
	MunicipalityID string
	Gender         domain.Gender
	// Locked, when set, keeps only characters whose lock state matches.
	Locked *bool
	// TrustLevel, when positive, keeps only characters at exactly that level.
	TrustLevel int
}

// Match reports whether p passes every active criterion of f. Locked
// characters have no attributes, so they never pass an attribute filter.
func (f Filter) Match(p domain.Profile) bool {
	if p.IsLocked && (f.MunicipalityID != "" || f.Gender != "" || f.TrustLevel > 0) {
		return false
	}
	if f.MunicipalityID != "" && p.MunicipalityID != f.MunicipalityID {
		return false
	}
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if f.Locked != nil && p.IsLocked != *f.Locked {
		return false
	}
	if f.TrustLevel > 0 && domain.TrustLevelOf(p.Relationship) != f.TrustLevel {
		return false
	}
	return true
}

// Sorter carries the locale and municipality names used for text sorts.
// The zero value sorts names with the root collation and cities by ID.
type Sorter struct {
	Locale language.Tag
	// CityNames maps municipality ID to its display name.
	CityNames map[string]string
}

// Apply filters entries with f and returns them ordered by key. The input
// slice is not modified. Sorting is stable, so entries that compare equal
// keep their upstream order.
func (s Sorter) Apply(entries []domain.Profile, f Filter, key SortKey) []domain.Profile {
	out := make([]domain.Profile, 0, len(entries))
	for _, p := range entries {
		if f.Match(p) {
			out = append(out, p)
		}
	}

	switch key {
	case SortTrustLevel, "":
		slices.SortStableFunc(out, func(a, b domain.Profile) int {
			// descending; a missing relationship is level 0
			return domain.TrustLevelOf(b.Relationship) - domain.TrustLevelOf(a.Relationship)
		})
	case SortLastConversation:
		slices.SortStableFunc(out, func(a, b domain.Profile) int {
			return domain.LastConversationOf(b.Relationship).Compare(domain.LastConversationOf(a.Relationship))
		})
	case SortName:
		c := s.collator()
		slices.SortStableFunc(out, func(a, b domain.Profile) int {
			return c.CompareString(a.Name, b.Name)
		})
	case SortCity:
		c := s.collator()
		slices.SortStableFunc(out, func(a, b domain.Profile) int {
			return c.CompareString(s.cityName(a.MunicipalityID), s.cityName(b.MunicipalityID))
		})
	}
	return out
}

// collator builds a fresh collator; collate.Collator is not safe for
// concurrent use.
func (s Sorter) collator() *collate.Collator {
	return collate.New(s.Locale)
}

func (s Sorter) cityName(id string) string {
	if n, ok := s.CityNames[id]; ok {
		return n
	}
	return id
}

// Histogram counts characters per trust level. Index i holds the count for
// level i; index 0 is unused. Characters without a relationship or with an
// out-of-range level are not counted.
type Histogram [domain.MaxTrustLevel + 1]int

// NewHistogram tallies the trust levels of entries.
func NewHistogram(entries []domain.Profile) Histogram {
	var h Histogram
	for _, p := range entries {
		lvl := domain.TrustLevelOf(p.Relationship)
		if lvl >= domain.MinTrustLevel && lvl <= domain.MaxTrustLevel {
			h[lvl]++
		}
	}
	return h
}

// Levels returns the counts for levels MinTrustLevel..MaxTrustLevel.
func (h Histogram) Levels() []int {
	return slices.Clone(h[domain.MinTrustLevel:])
}

// Total is the number of characters counted.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// FamilyLevel is the sum of all trust levels: the overall closeness score
// shown on the roster header.
func (h Histogram) FamilyLevel() int {
	sum := 0
	for lvl, c := range h {
		sum += lvl * c
	}
	return sum
}

// DaysSinceLastConversation returns whole days between the last
// conversation and now, or -1 if the user never talked to the character.
func DaysSinceLastConversation(rel *domain.Relationship, now time.Time) int {
	if rel == nil || rel.LastConversationAt == nil {
		return -1
	}
	d := now.Sub(*rel.LastConversationAt)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
