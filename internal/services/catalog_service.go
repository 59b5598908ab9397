package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

// CatalogService exposes read-only reference data from the upstream.
type CatalogService struct {
	API CatalogAPI
}

// Municipalities lists the municipalities of prefectureID.
func (s *CatalogService) Municipalities(ctx context.Context, prefectureID string) ([]domain.Municipality, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Municipalities",
		trace.WithAttributes(attribute.String("prefecture.id", prefectureID)))
	defer span.End()
	out, err := s.API.GetMunicipalities(ctx, prefectureID)
	return out, upstreamErr(err)
}

// Occupations lists all occupations.
func (s *CatalogService) Occupations(ctx context.Context) ([]domain.Occupation, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Occupations")
	defer span.End()
	out, err := s.API.GetOccupations(ctx)
	return out, upstreamErr(err)
}

// Events lists regional events; fukushimaWeeks selects the campaign list.
func (s *CatalogService) Events(ctx context.Context, fukushimaWeeks bool) ([]domain.Event, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Events",
		trace.WithAttributes(attribute.Bool("fukushima_weeks", fukushimaWeeks)))
	defer span.End()
	if fukushimaWeeks {
		out, err := s.API.GetFukushimaWeeksEvents(ctx)
		return out, upstreamErr(err)
	}
	out, err := s.API.GetEvents(ctx)
	return out, upstreamErr(err)
}

// Achievements lists the user's earned (unlocked=true) or outstanding
// achievements.
func (s *CatalogService) Achievements(ctx context.Context, unlocked bool) ([]domain.Achievement, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Achievements",
		trace.WithAttributes(attribute.Bool("unlocked", unlocked)))
	defer span.End()
	if unlocked {
		out, err := s.API.GetUnlockedAchievements(ctx)
		return out, upstreamErr(err)
	}
	out, err := s.API.GetLockedAchievements(ctx)
	return out, upstreamErr(err)
}
