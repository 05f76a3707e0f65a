package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/model"
	"github.com/sakif/cityinfo/internal/repository"
)

// ListCities returns one page of cities plus the metadata describing it.
//
// QUERY CONSTRUCTION:
// The WHERE clause is assembled from the filters that were actually supplied,
// and the same clause + arguments drive two statements:
//
//  1. SELECT COUNT(*) ...            → total matches, used for the metadata
//  2. SELECT ... ORDER BY name
//     LIMIT pageSize OFFSET skip     → the page itself
//
// Only fixed SQL fragments are concatenated; user input always travels as a
// ? parameter.
//
// SEARCH SEMANTICS:
// instr() is a case-sensitive substring test. LIKE would be case-insensitive
// for ASCII in SQLite, which is not what a "contains" search should do here.
func (s *Session) ListCities(ctx context.Context, query repository.CityQuery) ([]model.City, model.PaginationMetadata, error) {
	query = query.Normalize()

	var (
		conditions []string
		args       []any
	)
	if name, ok := query.NameFilter(); ok {
		conditions = append(conditions, "name = ?")
		args = append(args, name)
	}
	if query.SearchQuery != "" {
		conditions = append(conditions,
			"(instr(name, ?) > 0 OR (description IS NOT NULL AND instr(description, ?) > 0))")
		args = append(args, query.SearchQuery, query.SearchQuery)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cities`+where, args...,
	).Scan(&total); err != nil {
		return nil, model.PaginationMetadata{}, fmt.Errorf("sqlite: counting cities: %w", err)
	}
	metadata := model.NewPaginationMetadata(total, query.PageSize, query.PageNumber)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, description FROM cities`+where+
			` ORDER BY name ASC, id ASC LIMIT ? OFFSET ?`,
		append(args, query.PageSize, query.Offset())...,
	)
	if err != nil {
		return nil, metadata, fmt.Errorf("sqlite: listing cities: %w", err)
	}
	defer rows.Close()

	cities := make([]model.City, 0, query.PageSize)
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, metadata, fmt.Errorf("sqlite: scanning city row: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, metadata, fmt.Errorf("sqlite: iterating cities: %w", err)
	}

	return cities, metadata, nil
}

// GetCity loads one city. Its points of interest are loaded in a second query
// only when includePointsOfInterest is set; otherwise the slice stays nil.
func (s *Session) GetCity(ctx context.Context, cityID int64, includePointsOfInterest bool) (*model.City, error) {
	c, err := scanCity(s.conn.QueryRowContext(ctx,
		`SELECT id, name, description FROM cities WHERE id = ?`, cityID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("city", strconv.FormatInt(cityID, 10))
		}
		return nil, fmt.Errorf("sqlite: getting city %d: %w", cityID, err)
	}

	if includePointsOfInterest {
		pois, err := s.ListPointsOfInterest(ctx, cityID)
		if err != nil {
			return nil, err
		}
		c.PointsOfInterest = pois
	}

	return &c, nil
}

// CityExists is a pure existence check; nothing is loaded.
func (s *Session) CityExists(ctx context.Context, cityID int64) (bool, error) {
	var exists bool
	if err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cities WHERE id = ?)`, cityID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("sqlite: checking city %d exists: %w", cityID, err)
	}
	return exists, nil
}

// CityNameMatchesCityID reports whether the city with cityID is called cityName.
func (s *Session) CityNameMatchesCityID(ctx context.Context, cityName string, cityID int64) (bool, error) {
	var matches bool
	if err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cities WHERE id = ? AND name = ?)`, cityID, cityName,
	).Scan(&matches); err != nil {
		return false, fmt.Errorf("sqlite: matching city %d name: %w", cityID, err)
	}
	return matches, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCity(row rowScanner) (model.City, error) {
	var (
		c           model.City
		description sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &description); err != nil {
		return model.City{}, err
	}
	c.Description = description.String
	return c, nil
}
