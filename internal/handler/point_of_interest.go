package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/auth"
	"github.com/sakif/cityinfo/internal/dto"
	"github.com/sakif/cityinfo/internal/model"
)

// PointOfInterestService is what PointOfInterestHandler needs from the
// business layer.
type PointOfInterestService interface {
	List(ctx context.Context, cityID int64, callerCity string) ([]model.PointOfInterest, error)
	Get(ctx context.Context, cityID, pointOfInterestID int64) (*model.PointOfInterest, error)
	Create(ctx context.Context, cityID int64, in dto.PointOfInterestForCreation) (*model.PointOfInterest, error)
	Update(ctx context.Context, cityID, pointOfInterestID int64, in dto.PointOfInterestForUpdate) error
	Patch(ctx context.Context, cityID, pointOfInterestID int64, patchDocument []byte) error
	Delete(ctx context.Context, cityID, pointOfInterestID int64) error
}

// PointOfInterestHandler serves /api/cities/{cityId}/pointsofinterest.
type PointOfInterestHandler struct {
	pois   PointOfInterestService
	logger *slog.Logger
}

func NewPointOfInterestHandler(pois PointOfInterestService, logger *slog.Logger) *PointOfInterestHandler {
	return &PointOfInterestHandler{pois: pois, logger: logger}
}

// HandleList handles GET /api/cities/{cityId}/pointsofinterest
func (h *PointOfInterestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	cityID, err := idParam(r, "cityId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	callerCity := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		callerCity = claims.City
	}

	pois, err := h.pois.List(r.Context(), cityID, callerCity)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusOK, dto.NewPointsOfInterest(pois))
}

// HandleGet handles GET /api/cities/{cityId}/pointsofinterest/{pointOfInterestId}
func (h *PointOfInterestHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cityID, poiID, ok := h.ids(w, r)
	if !ok {
		return
	}

	poi, err := h.pois.Get(r.Context(), cityID, poiID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusOK, dto.NewPointOfInterest(*poi))
}

// HandleCreate handles POST /api/cities/{cityId}/pointsofinterest
//
// 201 Created with a Location header pointing at the new resource.
func (h *PointOfInterestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	cityID, err := idParam(r, "cityId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var in dto.PointOfInterestForCreation
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	poi, err := h.pois.Create(r.Context(), cityID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/cities/%d/pointsofinterest/%d", cityID, poi.ID))
	respond(w, r, http.StatusCreated, dto.NewPointOfInterest(*poi))
}

// HandleUpdate handles PUT /api/cities/{cityId}/pointsofinterest/{pointOfInterestId}
//
// Full replacement: a field left out of the body is reset.
func (h *PointOfInterestHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	cityID, poiID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var in dto.PointOfInterestForUpdate
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.pois.Update(r.Context(), cityID, poiID, in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePatch handles PATCH /api/cities/{cityId}/pointsofinterest/{pointOfInterestId}
//
// REQUEST BODY (RFC 6902):
//
//	[{"op":"replace","path":"/name","value":"Updated name"}]
func (h *PointOfInterestHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	cityID, poiID, ok := h.ids(w, r)
	if !ok {
		return
	}

	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("body", "The request body could not be read."))
		return
	}

	if err := h.pois.Patch(r.Context(), cityID, poiID, patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /api/cities/{cityId}/pointsofinterest/{pointOfInterestId}
func (h *PointOfInterestHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	cityID, poiID, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.pois.Delete(r.Context(), cityID, poiID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ids parses both route ids, writing the error response itself on failure.
func (h *PointOfInterestHandler) ids(w http.ResponseWriter, r *http.Request) (cityID, poiID int64, ok bool) {
	cityID, err := idParam(r, "cityId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return 0, 0, false
	}
	poiID, err = idParam(r, "pointOfInterestId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return 0, 0, false
	}
	return cityID, poiID, true
}
