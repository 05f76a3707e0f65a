// Package dto defines what the API sends and receives, and the mapping between
// those shapes and the persistence entities in internal/model.
//
// ONE ENTITY, SEVERAL SHAPES:
// A city is returned in two projections (with and without its points of
// interest), and a point of interest is read in one shape but written in two
// (creation and update). Each shape is its own type, so a handler can never
// accidentally leak a field that belongs to another view.
//
// The validate tags on the input types are enforced by internal/validate.
package dto

import (
	"encoding/xml"
	"strings"
)

const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
)

// City is the detailed projection of a city, including its points of interest.
type City struct {
	XMLName                  xml.Name          `json:"-" xml:"City"`
	ID                       int64             `json:"id" xml:"Id"`
	Name                     string            `json:"name" xml:"Name"`
	Description              string            `json:"description,omitempty" xml:"Description,omitempty"`
	NumberOfPointsOfInterest int               `json:"numberOfPointsOfInterest" xml:"NumberOfPointsOfInterest"`
	PointsOfInterest         []PointOfInterest `json:"pointsOfInterest" xml:"PointsOfInterest>PointOfInterest"`
}

// CityWithoutPointsOfInterest is the projection used by the list endpoint and
// by get-by-id when points of interest were not requested.
type CityWithoutPointsOfInterest struct {
	XMLName     xml.Name `json:"-" xml:"CityWithoutPointsOfInterest"`
	ID          int64    `json:"id" xml:"Id"`
	Name        string   `json:"name" xml:"Name"`
	Description string   `json:"description,omitempty" xml:"Description,omitempty"`
}

type PointOfInterest struct {
	XMLName     xml.Name `json:"-" xml:"PointOfInterest"`
	ID          int64    `json:"id" xml:"Id"`
	Name        string   `json:"name" xml:"Name"`
	Description string   `json:"description,omitempty" xml:"Description,omitempty"`
}

// PointOfInterestForCreation is the POST body.
type PointOfInterestForCreation struct {
	XMLName     xml.Name `json:"-" xml:"PointOfInterestForCreation"`
	Name        string   `json:"name" xml:"Name" validate:"required,max=50"`
	Description string   `json:"description,omitempty" xml:"Description,omitempty" validate:"max=200"`
}

// PointOfInterestForUpdate is the PUT body and the document a JSON Patch is
// applied to. Description is always serialized so "replace /description"
// finds a member to replace.
type PointOfInterestForUpdate struct {
	XMLName     xml.Name `json:"-" xml:"PointOfInterestForUpdate"`
	Name        string   `json:"name" xml:"Name" validate:"required,max=50"`
	Description string   `json:"description" xml:"Description,omitempty" validate:"max=200"`
}

// AuthenticationRequestBody carries the credentials posted to /authenticate.
type AuthenticationRequestBody struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// Trimmed drops surrounding whitespace so that a name of "   " fails the
// required rule.
func (p PointOfInterestForCreation) Trimmed() PointOfInterestForCreation {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	return p
}

func (p PointOfInterestForUpdate) Trimmed() PointOfInterestForUpdate {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	return p
}
