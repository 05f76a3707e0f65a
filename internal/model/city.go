// Package model defines the persistence entities used throughout the application.
//
// Entities are plain structs with no JSON or XML tags: what goes over the wire
// is decided by the DTOs in internal/dto. Keeping the two apart means a column
// can be renamed without breaking API clients, and vice versa.
package model

// City is a city row together with the points of interest it owns.
//
// PointsOfInterest is only populated when the repository was asked to load it
// (eager loading). A nil slice means "not loaded", not "has none".
type City struct {
	ID               int64
	Name             string
	Description      string
	PointsOfInterest []PointOfInterest
}
