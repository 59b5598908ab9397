package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/store"
)

type relationshipFetcher interface {
	GetRelationship(ctx context.Context, characterID string) (domain.Relationship, error)
}

// loadRelationship reads through the store: a hit is returned as is, a miss
// is fetched upstream and written back. Store failures are logged and
// treated as a miss so a broken cache never breaks a page.
func loadRelationship(ctx context.Context, st store.RelationshipStore, api relationshipFetcher, userID, characterID string) (*domain.Relationship, error) {
	if st != nil {
		rel, ok, err := st.Get(ctx, userID, characterID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("character_id", characterID).Msg("relationship store read failed")
		} else if ok {
			return &rel, nil
		}
	}

	rel, err := api.GetRelationship(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	putRelationship(ctx, st, userID, rel)
	return &rel, nil
}

func putRelationship(ctx context.Context, st store.RelationshipStore, userID string, rel domain.Relationship) {
	if st == nil {
		return
	}
	if err := st.Put(ctx, userID, rel); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("character_id", rel.CharacterID).Msg("relationship store write failed")
	}
}

func invalidateRelationship(ctx context.Context, st store.RelationshipStore, userID, characterID string) {
	if st == nil {
		return
	}
	if err := st.Invalidate(ctx, userID, characterID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("character_id", characterID).Msg("relationship store invalidate failed")
	}
}
