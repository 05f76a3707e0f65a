package model

// PointOfInterest belongs to exactly one City.
//
// ID is assigned by the store when the owning unit of work is saved; until
// then it is zero. CityID is set when the entity is attached to a city and
// never changes afterwards.
type PointOfInterest struct {
	ID          int64
	CityID      int64
	Name        string
	Description string
}
