// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, negotiates formats, writes responses
//	Service (Business layer) → validates, checks existence, orchestrates a unit of work
//	Repository (Data layer)  → reads and writes SQLite
//
// Services depend on repository.Store (an interface), never on the sqlite
// package, so the tests in this package run against an in-memory fake.
//
// ONE SESSION PER OPERATION:
// Every exported method opens its own repository session, does all its reads
// and writes through it and finishes with at most one SaveChanges. Nothing is
// shared between concurrent requests except the store itself.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/cityinfo/internal/model"
	"github.com/sakif/cityinfo/internal/repository"
)

// CityService serves the read-only city endpoints.
type CityService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCityService(store repository.Store, logger *slog.Logger) *CityService {
	return &CityService{store: store, logger: logger}
}

// List returns one page of cities matching query. Paging values are
// normalized (defaults, clamp to 20) by the repository.
func (s *CityService) List(ctx context.Context, query repository.CityQuery) ([]model.City, model.PaginationMetadata, error) {
	cities, meta, err := s.store.Session().ListCities(ctx, query)
	if err != nil {
		return nil, model.PaginationMetadata{}, fmt.Errorf("listing cities: %w", err)
	}

	s.logger.DebugContext(ctx, "cities listed",
		slog.Int("returned", len(cities)),
		slog.Int("total", meta.TotalItemCount),
		slog.Int("page", meta.CurrentPage),
	)
	return cities, meta, nil
}

// Get returns one city, with its points of interest when includePointsOfInterest is set.
func (s *CityService) Get(ctx context.Context, cityID int64, includePointsOfInterest bool) (*model.City, error) {
	city, err := s.store.Session().GetCity(ctx, cityID, includePointsOfInterest)
	if err != nil {
		return nil, fmt.Errorf("getting city: %w", err)
	}
	return city, nil
}
