package dto

import "github.com/sakif/cityinfo/internal/model"

// NewCity maps a city with its loaded points of interest.
// A city whose collection was not loaded maps to an empty list.
func NewCity(c model.City) City {
	pois := NewPointsOfInterest(c.PointsOfInterest)
	return City{
		ID:                       c.ID,
		Name:                     c.Name,
		Description:              c.Description,
		NumberOfPointsOfInterest: len(pois),
		PointsOfInterest:         pois,
	}
}

func NewCityWithoutPointsOfInterest(c model.City) CityWithoutPointsOfInterest {
	return CityWithoutPointsOfInterest{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}

func NewCitiesWithoutPointsOfInterest(cities []model.City) []CityWithoutPointsOfInterest {
	out := make([]CityWithoutPointsOfInterest, 0, len(cities))
	for _, c := range cities {
		out = append(out, NewCityWithoutPointsOfInterest(c))
	}
	return out
}

func NewPointOfInterest(p model.PointOfInterest) PointOfInterest {
	return PointOfInterest{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
	}
}

func NewPointsOfInterest(pois []model.PointOfInterest) []PointOfInterest {
	out := make([]PointOfInterest, 0, len(pois))
	for _, p := range pois {
		out = append(out, NewPointOfInterest(p))
	}
	return out
}

// Entity builds an unsaved point of interest. ID and CityID are filled in by
// the repository.
func (p PointOfInterestForCreation) Entity() *model.PointOfInterest {
	return &model.PointOfInterest{
		Name:        p.Name,
		Description: p.Description,
	}
}

// NewPointOfInterestForUpdate materializes the update document of an existing
// entity; a JSON Patch is applied to this.
func NewPointOfInterestForUpdate(p model.PointOfInterest) PointOfInterestForUpdate {
	return PointOfInterestForUpdate{
		Name:        p.Name,
		Description: p.Description,
	}
}

// ApplyTo copies every updatable field onto p. Fields missing from the
// document overwrite p with their zero value.
func (u PointOfInterestForUpdate) ApplyTo(p *model.PointOfInterest) {
	p.Name = u.Name
	p.Description = u.Description
}
