package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/dto"
	"github.com/sakif/cityinfo/internal/model"
	"github.com/sakif/cityinfo/internal/repository"
)

// CityService is what CityHandler needs from the business layer.
type CityService interface {
	List(ctx context.Context, query repository.CityQuery) ([]model.City, model.PaginationMetadata, error)
	Get(ctx context.Context, cityID int64, includePointsOfInterest bool) (*model.City, error)
}

// CityHandler serves /api/cities.
type CityHandler struct {
	cities CityService
	logger *slog.Logger
}

func NewCityHandler(cities CityService, logger *slog.Logger) *CityHandler {
	return &CityHandler{cities: cities, logger: logger}
}

// HandleList returns one page of cities without their points of interest.
//
// HTTP: GET /api/cities?filterbyname=&searchQuery=&pageNumber=&pageSize=
//
// The page description travels in the X-Pagination header, not the body:
//
//	X-Pagination: {"totalItemCount":12,"totalPageCount":3,"pageSize":5,"currentPage":2}
func (h *CityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageNumber, err := intQuery(q.Get("pageNumber"), "pageNumber")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	pageSize, err := intQuery(q.Get("pageSize"), "pageSize")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	cities, meta, err := h.cities.List(r.Context(), repository.CityQuery{
		Name:        q.Get("filterbyname"),
		SearchQuery: q.Get("searchQuery"),
		PageNumber:  pageNumber,
		PageSize:    pageSize,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	header, err := json.Marshal(meta)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("encoding pagination metadata: %w", err))
		return
	}
	w.Header().Set("X-Pagination", string(header))

	respond(w, r, http.StatusOK, dto.NewCitiesWithoutPointsOfInterest(cities))
}

// HandleGet returns one city.
//
// HTTP: GET /api/cities/{cityId}?includePointsOfInterest=true
func (h *CityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cityID, err := idParam(r, "cityId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	include := false
	if raw := r.URL.Query().Get("includePointsOfInterest"); raw != "" {
		include, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, h.logger, apperror.ValidationFailed("includePointsOfInterest",
				fmt.Sprintf("The value '%s' is not valid.", raw)))
			return
		}
	}

	city, err := h.cities.Get(r.Context(), cityID, include)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if include {
		respond(w, r, http.StatusOK, dto.NewCity(*city))
		return
	}
	respond(w, r, http.StatusOK, dto.NewCityWithoutPointsOfInterest(*city))
}

// intQuery parses an optional integer query value; empty means 0 (default).
func intQuery(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("The value '%s' is not valid.", raw))
	}
	return n, nil
}
