package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/goccy/go-json"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/dto"
	"github.com/sakif/cityinfo/internal/model"
	"github.com/sakif/cityinfo/internal/notify"
	"github.com/sakif/cityinfo/internal/repository"
	"github.com/sakif/cityinfo/internal/validate"
)

// PatchDocumentKey is the error key under which JSON Patch failures are reported.
const PatchDocumentKey = "patchDocument"

// PointOfInterestService implements the nested points-of-interest resource.
type PointOfInterestService struct {
	store  repository.Store
	mailer notify.Mailer
	logger *slog.Logger

	// enforceCityMatch makes List refuse callers whose city claim does not
	// name the requested city.
	enforceCityMatch bool
}

func NewPointOfInterestService(store repository.Store, mailer notify.Mailer, enforceCityMatch bool, logger *slog.Logger) *PointOfInterestService {
	return &PointOfInterestService{
		store:            store,
		mailer:           mailer,
		logger:           logger,
		enforceCityMatch: enforceCityMatch,
	}
}

// List returns every point of interest of cityID.
//
// callerCity is the "city" claim of the authenticated caller. It is only
// consulted when city matching is enforced, and that check runs before the
// existence check: a caller cannot probe for city ids it may not see.
func (s *PointOfInterestService) List(ctx context.Context, cityID int64, callerCity string) ([]model.PointOfInterest, error) {
	repo := s.store.Session()

	if s.enforceCityMatch {
		matches, err := repo.CityNameMatchesCityID(ctx, callerCity, cityID)
		if err != nil {
			return nil, fmt.Errorf("listing points of interest: %w", err)
		}
		if !matches {
			return nil, apperror.Forbidden("caller does not live in the requested city")
		}
	}

	if err := requireCity(ctx, repo, cityID); err != nil {
		s.logger.InfoContext(ctx, "city not found when accessing points of interest",
			slog.Int64("city_id", cityID))
		return nil, err
	}

	pois, err := repo.ListPointsOfInterest(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("listing points of interest: %w", err)
	}
	return pois, nil
}

// Get returns one point of interest of cityID.
func (s *PointOfInterestService) Get(ctx context.Context, cityID, pointOfInterestID int64) (*model.PointOfInterest, error) {
	repo := s.store.Session()

	if err := requireCity(ctx, repo, cityID); err != nil {
		return nil, err
	}
	poi, err := repo.GetPointOfInterest(ctx, cityID, pointOfInterestID)
	if err != nil {
		return nil, fmt.Errorf("getting point of interest: %w", err)
	}
	return poi, nil
}

// Create validates in, attaches it to cityID and saves it. The returned entity
// carries the store-assigned id.
func (s *PointOfInterestService) Create(ctx context.Context, cityID int64, in dto.PointOfInterestForCreation) (*model.PointOfInterest, error) {
	in = in.Trimmed()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	repo := s.store.Session()
	poi := in.Entity()
	if err := repo.AddPointOfInterest(ctx, cityID, poi); err != nil {
		return nil, fmt.Errorf("creating point of interest: %w", err)
	}
	if err := save(ctx, repo); err != nil {
		return nil, fmt.Errorf("creating point of interest: %w", err)
	}

	s.logger.InfoContext(ctx, "point of interest created",
		slog.Int64("city_id", cityID),
		slog.Int64("id", poi.ID),
		slog.String("name", poi.Name),
	)
	return poi, nil
}

// Update replaces every updatable field. A field missing from in is reset.
func (s *PointOfInterestService) Update(ctx context.Context, cityID, pointOfInterestID int64, in dto.PointOfInterestForUpdate) error {
	in = in.Trimmed()
	if err := validate.Struct(in); err != nil {
		return err
	}

	repo := s.store.Session()
	if err := requireCity(ctx, repo, cityID); err != nil {
		return err
	}
	poi, err := repo.GetPointOfInterest(ctx, cityID, pointOfInterestID)
	if err != nil {
		return fmt.Errorf("updating point of interest: %w", err)
	}

	in.ApplyTo(poi)
	if err := save(ctx, repo); err != nil {
		return fmt.Errorf("updating point of interest: %w", err)
	}
	return nil
}

// Patch applies an RFC 6902 document to the update representation of the
// stored entity.
//
// TWO KINDS OF 400:
//  1. The patch itself is unusable: it does not decode, an operation fails
//     (bad path, failed test), or the result has members the representation
//     does not know. Reported under PatchDocumentKey.
//  2. The patch applied cleanly but the result breaks a field rule (empty
//     name, too long). Reported under the field's name.
//
// In both cases nothing is saved.
func (s *PointOfInterestService) Patch(ctx context.Context, cityID, pointOfInterestID int64, patchDocument []byte) error {
	patch, err := jsonpatch.DecodePatch(patchDocument)
	if err != nil {
		return apperror.ValidationFailed(PatchDocumentKey, "The JSON patch document is malformed: "+err.Error())
	}

	repo := s.store.Session()
	if err := requireCity(ctx, repo, cityID); err != nil {
		return err
	}
	poi, err := repo.GetPointOfInterest(ctx, cityID, pointOfInterestID)
	if err != nil {
		return fmt.Errorf("patching point of interest: %w", err)
	}

	original, err := json.Marshal(dto.NewPointOfInterestForUpdate(*poi))
	if err != nil {
		return fmt.Errorf("patching point of interest: encoding document: %w", err)
	}
	patched, err := patch.Apply(original)
	if err != nil {
		return apperror.ValidationFailed(PatchDocumentKey, "The JSON patch could not be applied: "+err.Error())
	}

	var doc dto.PointOfInterestForUpdate
	dec := json.NewDecoder(bytes.NewReader(patched))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return apperror.ValidationFailed(PatchDocumentKey, "The patched document is not a valid point of interest: "+err.Error())
	}

	doc = doc.Trimmed()
	if err := validate.Struct(doc); err != nil {
		return err
	}

	doc.ApplyTo(poi)
	if err := save(ctx, repo); err != nil {
		return fmt.Errorf("patching point of interest: %w", err)
	}
	return nil
}

// Delete removes a point of interest and notifies the administrator.
// A failed notification is logged and never prevents the deletion.
func (s *PointOfInterestService) Delete(ctx context.Context, cityID, pointOfInterestID int64) error {
	repo := s.store.Session()
	if err := requireCity(ctx, repo, cityID); err != nil {
		return err
	}
	poi, err := repo.GetPointOfInterest(ctx, cityID, pointOfInterestID)
	if err != nil {
		return fmt.Errorf("deleting point of interest: %w", err)
	}

	repo.DeletePointOfInterest(poi)

	if err := s.mailer.Send(ctx, "Point of interest deleted.",
		fmt.Sprintf("Point of interest %s with id %d was deleted.", poi.Name, poi.ID),
	); err != nil {
		s.logger.WarnContext(ctx, "deletion notification failed",
			slog.String("mailer", s.mailer.Name()),
			slog.Int64("id", poi.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := save(ctx, repo); err != nil {
		return fmt.Errorf("deleting point of interest: %w", err)
	}
	return nil
}

// requireCity returns a NotFound error unless cityID exists.
func requireCity(ctx context.Context, repo repository.CityInfoRepository, cityID int64) error {
	exists, err := repo.CityExists(ctx, cityID)
	if err != nil {
		return fmt.Errorf("checking city: %w", err)
	}
	if !exists {
		return apperror.NotFound("city", strconv.FormatInt(cityID, 10))
	}
	return nil
}

var errNotSaved = errors.New("changes were not saved")

func save(ctx context.Context, repo repository.CityInfoRepository) error {
	ok, err := repo.SaveChanges(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNotSaved
	}
	return nil
}
