// Package repository declares the persistence contract for cities and their
// points of interest. The sqlite sub-package implements it.
//
// UNIT OF WORK:
// A CityInfoRepository is a session, not a connection. Reads go straight to the
// store, but writes (AddPointOfInterest, DeletePointOfInterest and any field
// changes on entities returned by GetPointOfInterest) are only recorded. Nothing
// reaches the database until SaveChanges flushes every pending change in a
// single transaction.
//
// Sessions are cheap and request-scoped: ask the Store for a new one per
// request and never share it between goroutines.
package repository

import (
	"context"
	"math"
	"strings"

	"github.com/sakif/cityinfo/internal/model"
)

const (
	DefaultPageSize   = 10
	MaxCitiesPageSize = 20

	// MaxPageNumber keeps PageSize*(PageNumber-1) inside int for every
	// allowed page size. Pages that far out are always empty.
	MaxPageNumber = math.MaxInt / MaxCitiesPageSize
)

// CityQuery holds the filter, search and paging inputs of ListCities.
type CityQuery struct {
	// Name is an exact, case-sensitive match after trimming. Empty means no
	// filter; a value of only whitespace filters on the empty name and so
	// matches nothing.
	Name        string
	SearchQuery string // substring of name or description
	PageNumber  int
	PageSize    int
}

// Normalize defaults non-positive paging values and clamps the page size to
// MaxCitiesPageSize and the page number to MaxPageNumber. Name is left as
// given; see NameFilter.
func (q CityQuery) Normalize() CityQuery {
	if q.PageNumber < 1 {
		q.PageNumber = 1
	}
	if q.PageNumber > MaxPageNumber {
		q.PageNumber = MaxPageNumber
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxCitiesPageSize {
		q.PageSize = MaxCitiesPageSize
	}
	return q
}

// NameFilter returns the trimmed name to match and whether a name filter was
// given at all.
func (q CityQuery) NameFilter() (string, bool) {
	if q.Name == "" {
		return "", false
	}
	return strings.TrimSpace(q.Name), true
}

// Offset is the number of matching rows skipped before the page starts.
// It expects a normalized query.
func (q CityQuery) Offset() int {
	return q.PageSize * (q.PageNumber - 1)
}

type CityInfoRepository interface {
	ListCities(ctx context.Context, query CityQuery) ([]model.City, model.PaginationMetadata, error)
	GetCity(ctx context.Context, cityID int64, includePointsOfInterest bool) (*model.City, error)
	CityExists(ctx context.Context, cityID int64) (bool, error)
	CityNameMatchesCityID(ctx context.Context, cityName string, cityID int64) (bool, error)

	ListPointsOfInterest(ctx context.Context, cityID int64) ([]model.PointOfInterest, error)
	GetPointOfInterest(ctx context.Context, cityID, pointOfInterestID int64) (*model.PointOfInterest, error)
	AddPointOfInterest(ctx context.Context, cityID int64, pointOfInterest *model.PointOfInterest) error
	DeletePointOfInterest(pointOfInterest *model.PointOfInterest)

	// SaveChanges reports true whenever the commit succeeded, including when
	// there was nothing to write. Only a returned error means failure.
	SaveChanges(ctx context.Context) (bool, error)
}

// Store hands out request-scoped sessions.
type Store interface {
	Session() CityInfoRepository
}
