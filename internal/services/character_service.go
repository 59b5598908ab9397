// Package services – CharacterService
//
// This file implements CharacterService, which backs the roster, the
// character detail page and the story list. It merges three sources: the
// upstream character list (with embedded relationships), the keyed
// relationship store, and the locally persisted favorite and newly-unlocked
// sets. Filtering, sorting and the trust-level histogram are delegated to the
// roster package.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"slices"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/roster"
	"github.com/tbourn/go-tasuki-companion/internal/store"
)

// RosterEntry is one row of the roster page.
type RosterEntry struct {
	domain.Profile
	IsNew      bool `json:"isNew"`
	IsFavorite bool `json:"isFavorite"`
	// DaysSinceLastConversation is -1 when the user never talked to the character.
	DaysSinceLastConversation int `json:"daysSinceLastConversation"`
}

// Roster is the filtered, sorted character list plus the trust-level summary
// computed over every unlocked character.
type Roster struct {
	Characters  []RosterEntry `json:"characters"`
	Histogram   []int         `json:"histogram"`
	FamilyLevel int           `json:"familyLevel"`
	Total       int           `json:"total"`
}

// CharacterService provides roster, detail and story operations.
type CharacterService struct {
	DB    *gorm.DB
	API   CharacterAPI
	Store store.RelationshipStore

	Sorter roster.Sorter
	// PrefectureID selects the municipality list used to name cities when
	// sorting by city. Empty disables the lookup.
	PrefectureID string

	Now func() time.Time
}

func (s *CharacterService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns userID's roster. Locked characters are included unless the
// filter asks for unlocked ones only.
func (s *CharacterService) List(ctx context.Context, userID string, f roster.Filter, key roster.SortKey) (*Roster, error) {
	tr := otel.Tracer("services/CharacterService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("sort", string(key)),
		),
	)
	defer span.End()

	unlocked, err := s.API.GetCharacters(ctx)
	if err != nil {
		return nil, upstreamErr(err)
	}
	all := unlocked
	if f.Locked == nil || *f.Locked {
		locked, err := s.API.GetLockedCharacters(ctx)
		if err != nil {
			return nil, upstreamErr(err)
		}
		all = append(slices.Clone(unlocked), locked...)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	for _, p := range unlocked {
		if p.Relationship != nil {
			putRelationship(ctx, s.Store, userID, *p.Relationship)
		}
	}

	sorter := s.Sorter
	if key == roster.SortCity && s.PrefectureID != "" {
		sorter.CityNames = s.cityNames(ctx)
	}

	newSet, err := s.idSet(ctx, repo.ListNewUnlocks, userID)
	if err != nil {
		return nil, err
	}
	favSet, err := s.idSet(ctx, repo.ListFavorites, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	view := sorter.Apply(all, f, key)
	entries := make([]RosterEntry, 0, len(view))
	for _, p := range view {
		_, isNew := newSet[p.ID]
		_, isFav := favSet[p.ID]
		entries = append(entries, RosterEntry{
			Profile:                   p,
			IsNew:                     isNew,
			IsFavorite:                isFav,
			DaysSinceLastConversation: roster.DaysSinceLastConversation(p.Relationship, now),
		})
	}

	h := roster.NewHistogram(unlocked)
	return &Roster{
		Characters:  entries,
		Histogram:   h.Levels(),
		FamilyLevel: h.FamilyLevel(),
		Total:       len(entries),
	}, nil
}

// ListLocked returns only the characters userID has not unlocked yet.
func (s *CharacterService) ListLocked(ctx context.Context) ([]domain.Profile, error) {
	tr := otel.Tracer("services/CharacterService")
	ctx, span := tr.Start(ctx, "ListLocked")
	defer span.End()

	out, err := s.API.GetLockedCharacters(ctx)
	if err != nil {
		return nil, upstreamErr(err)
	}
	return out, nil
}

// Get returns one unlocked character with the user's relationship, read
// through the relationship store.
func (s *CharacterService) Get(ctx context.Context, userID, characterID string) (*RosterEntry, error) {
	tr := otel.Tracer("services/CharacterService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("character.id", characterID),
		),
	)
	defer span.End()

	chars, err := s.API.GetCharacters(ctx)
	if err != nil {
		return nil, upstreamErr(err)
	}
	i := slices.IndexFunc(chars, func(p domain.Profile) bool { return p.ID == characterID })
	if i < 0 {
		return nil, ErrCharacterNotFound
	}
	p := chars[i]

	rel, err := loadRelationship(ctx, s.Store, s.API, userID, characterID)
	if err != nil {
		return nil, characterErr(err)
	}
	p.Relationship = rel

	isFav, err := repo.IsFavorite(ctx, s.DB, userID, characterID)
	if err != nil {
		return nil, err
	}
	newSet, err := s.idSet(ctx, repo.ListNewUnlocks, userID)
	if err != nil {
		return nil, err
	}
	_, isNew := newSet[characterID]

	return &RosterEntry{
		Profile:                   p,
		IsNew:                     isNew,
		IsFavorite:                isFav,
		DaysSinceLastConversation: roster.DaysSinceLastConversation(rel, s.now()),
	}, nil
}

// Stories returns every story of characterID, readable and locked, ordered
// by required trust level. Locked stories have their title and content
// replaced.
func (s *CharacterService) Stories(ctx context.Context, userID, characterID string) ([]domain.Story, error) {
	tr := otel.Tracer("services/CharacterService")
	ctx, span := tr.Start(ctx, "Stories",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("character.id", characterID),
		),
	)
	defer span.End()

	rel, err := loadRelationship(ctx, s.Store, s.API, userID, characterID)
	if err != nil {
		return nil, characterErr(err)
	}

	open, err := s.API.GetStories(ctx, characterID)
	if err != nil {
		return nil, characterErr(err)
	}
	locked, err := s.API.GetLockedStories(ctx, characterID)
	if err != nil {
		return nil, characterErr(err)
	}

	seen := make(map[string]struct{}, len(open)+len(locked))
	out := make([]domain.Story, 0, len(open)+len(locked))
	for _, list := range [][]domain.Story{open, locked} {
		for _, st := range list {
			if _, dup := seen[st.ID]; dup {
				continue
			}
			seen[st.ID] = struct{}{}
			out = append(out, domain.GateStory(rel, st))
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Story) int {
		return a.RequiredTrustLevel - b.RequiredTrustLevel
	})
	return out, nil
}

// cityNames loads municipality names for the configured prefecture. A failed
// lookup degrades city sort to municipality IDs.
func (s *CharacterService) cityNames(ctx context.Context) map[string]string {
	ms, err := s.API.GetMunicipalities(ctx, s.PrefectureID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("prefecture_id", s.PrefectureID).Msg("municipality lookup failed; sorting cities by id")
		return nil
	}
	names := make(map[string]string, len(ms))
	for _, m := range ms {
		names[m.ID] = m.Name
	}
	return names
}

type idLister func(ctx context.Context, db *gorm.DB, userID string) ([]string, error)

func (s *CharacterService) idSet(ctx context.Context, list idLister, userID string) (map[string]struct{}, error) {
	ids, err := list(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
