package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/model"
)

// ListPointsOfInterest returns every point of interest owned by cityID, by id.
// An unknown city simply yields an empty slice; callers check CityExists first.
func (s *Session) ListPointsOfInterest(ctx context.Context, cityID int64) ([]model.PointOfInterest, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, city_id, name, description
		 FROM points_of_interest
		 WHERE city_id = ?
		 ORDER BY id`,
		cityID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing points of interest for city %d: %w", cityID, err)
	}
	defer rows.Close()

	pois := []model.PointOfInterest{}
	for rows.Next() {
		p, err := scanPointOfInterest(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning point of interest row: %w", err)
		}
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating points of interest: %w", err)
	}

	return pois, nil
}

// GetPointOfInterest looks a point of interest up by BOTH keys, so an id that
// belongs to another city is reported as not found.
//
// The returned entity is tracked: change its fields and call SaveChanges to
// persist them.
func (s *Session) GetPointOfInterest(ctx context.Context, cityID, pointOfInterestID int64) (*model.PointOfInterest, error) {
	p, err := scanPointOfInterest(s.conn.QueryRowContext(ctx,
		`SELECT id, city_id, name, description
		 FROM points_of_interest
		 WHERE city_id = ? AND id = ?`,
		cityID, pointOfInterestID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("point of interest", strconv.FormatInt(pointOfInterestID, 10))
		}
		return nil, fmt.Errorf("sqlite: getting point of interest %d: %w", pointOfInterestID, err)
	}

	s.track(&p)
	return &p, nil
}

// AddPointOfInterest attaches pointOfInterest to cityID. The INSERT happens on
// SaveChanges, which is also when pointOfInterest.ID gets filled in.
func (s *Session) AddPointOfInterest(ctx context.Context, cityID int64, pointOfInterest *model.PointOfInterest) error {
	exists, err := s.CityExists(ctx, cityID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("city", strconv.FormatInt(cityID, 10))
	}

	pointOfInterest.CityID = cityID
	s.added = append(s.added, pointOfInterest)
	return nil
}

// DeletePointOfInterest marks pointOfInterest for removal on the next SaveChanges.
// Removing an entity that was added in this session and never saved just
// forgets it.
func (s *Session) DeletePointOfInterest(pointOfInterest *model.PointOfInterest) {
	for i, p := range s.added {
		if p == pointOfInterest {
			s.added = append(s.added[:i], s.added[i+1:]...)
			return
		}
	}
	if !s.isRemoved(pointOfInterest) {
		s.removed = append(s.removed, pointOfInterest)
	}
}

func scanPointOfInterest(row rowScanner) (model.PointOfInterest, error) {
	var (
		p           model.PointOfInterest
		description sql.NullString
	)
	if err := row.Scan(&p.ID, &p.CityID, &p.Name, &description); err != nil {
		return model.PointOfInterest{}, err
	}
	p.Description = description.String
	return p, nil
}
