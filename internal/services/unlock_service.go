// Package services – UnlockService
//
// This file implements UnlockService: NFC tag unlocks and the per-user
// newly-unlocked set that drives the "NEW" badge. An unlock is submitted to
// the upstream exactly once; on success the returned relationship is stored,
// the character joins the newly-unlocked set, and a new-character event is
// published. The set is cleared when the client bootstraps a new app session.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/store"
	"github.com/tbourn/go-tasuki-companion/internal/tasuki"
)

// UnlockService handles NFC unlocks and the newly-unlocked set.
type UnlockService struct {
	DB        *gorm.DB
	API       UnlockAPI
	Store     store.RelationshipStore
	Publisher Publisher

	Now func() time.Time
}

// Unlock submits tagUUID and returns the unlocked character.
func (s *UnlockService) Unlock(ctx context.Context, userID, tagUUID string) (*domain.Profile, error) {
	tr := otel.Tracer("services/UnlockService")
	ctx, span := tr.Start(ctx, "Unlock", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	id, err := uuid.Parse(strings.TrimSpace(tagUUID))
	if err != nil {
		return nil, ErrInvalidTagUUID
	}

	p, err := s.API.CheckUnlock(ctx, id.String())
	if err != nil {
		if tasuki.IsNotFound(err) {
			return nil, ErrTagNotRecognized
		}
		return nil, upstreamErr(err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	span.SetAttributes(attribute.String("character.id", p.ID))

	if p.Relationship != nil {
		putRelationship(ctx, s.Store, userID, *p.Relationship)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if err := repo.AddNewUnlock(ctx, s.DB, userID, p.ID, now); err != nil {
		// The upstream already unlocked the character; only the badge is lost.
		log.Ctx(ctx).Error().Err(err).Str("character_id", p.ID).Msg("record new unlock failed")
	}

	unlocks.Inc()
	if s.Publisher != nil {
		ch := p.Character
		s.Publisher.Publish(Event{
			Type:         EventNewCharacter,
			UserID:       userID,
			CharacterID:  p.ID,
			Character:    &ch,
			Relationship: p.Relationship,
			At:           now.UTC(),
		})
	}
	return &p, nil
}

// NewUnlocks returns the characters unlocked since the last bootstrap.
func (s *UnlockService) NewUnlocks(ctx context.Context, userID string) ([]string, error) {
	ids, err := repo.ListNewUnlocks(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Bootstrap starts a new app session for userID: the newly-unlocked set is
// cleared. It returns how many entries were dropped.
func (s *UnlockService) Bootstrap(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/UnlockService")
	ctx, span := tr.Start(ctx, "Bootstrap", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.ClearNewUnlocks(ctx, s.DB, userID)
}
