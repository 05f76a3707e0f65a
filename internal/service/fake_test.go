package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/model"
	"github.com/sakif/cityinfo/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore implements repository.Store in memory. Its sessions follow the
// same unit-of-work contract as the SQLite ones: reads are immediate, writes
// only land in the maps on SaveChanges, and entities returned by
// GetPointOfInterest are tracked so that field changes are persisted.

type fakeStore struct {
	cities  map[int64]model.City
	pois    map[int64]model.PointOfInterest
	nextID  int64
	saveErr error
	saves   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cities: make(map[int64]model.City),
		pois:   make(map[int64]model.PointOfInterest),
		nextID: 100,
	}
}

func (f *fakeStore) addCity(id int64, name, description string) {
	f.cities[id] = model.City{ID: id, Name: name, Description: description}
}

func (f *fakeStore) addPointOfInterest(id, cityID int64, name, description string) {
	f.pois[id] = model.PointOfInterest{ID: id, CityID: cityID, Name: name, Description: description}
}

func (f *fakeStore) Session() repository.CityInfoRepository {
	return &fakeSession{store: f}
}

type fakeSession struct {
	store   *fakeStore
	added   []*model.PointOfInterest
	tracked []*model.PointOfInterest
	removed []*model.PointOfInterest
}

func (s *fakeSession) ListCities(_ context.Context, q repository.CityQuery) ([]model.City, model.PaginationMetadata, error) {
	q = q.Normalize()

	var matches []model.City
	for _, c := range s.store.cities {
		if q.Name != "" && c.Name != q.Name {
			continue
		}
		if q.SearchQuery != "" && !strings.Contains(c.Name, q.SearchQuery) && !strings.Contains(c.Description, q.SearchQuery) {
			continue
		}
		matches = append(matches, c)
	}
	slices.SortFunc(matches, func(a, b model.City) int { return strings.Compare(a.Name, b.Name) })

	meta := model.NewPaginationMetadata(len(matches), q.PageSize, q.PageNumber)
	start := min(q.Offset(), len(matches))
	end := min(start+q.PageSize, len(matches))
	return append([]model.City{}, matches[start:end]...), meta, nil
}

func (s *fakeSession) GetCity(ctx context.Context, cityID int64, include bool) (*model.City, error) {
	c, ok := s.store.cities[cityID]
	if !ok {
		return nil, apperror.NotFound("city", strconv.FormatInt(cityID, 10))
	}
	if include {
		c.PointsOfInterest, _ = s.ListPointsOfInterest(ctx, cityID)
	}
	return &c, nil
}

func (s *fakeSession) CityExists(_ context.Context, cityID int64) (bool, error) {
	_, ok := s.store.cities[cityID]
	return ok, nil
}

func (s *fakeSession) CityNameMatchesCityID(_ context.Context, cityName string, cityID int64) (bool, error) {
	c, ok := s.store.cities[cityID]
	return ok && c.Name == cityName, nil
}

func (s *fakeSession) ListPointsOfInterest(_ context.Context, cityID int64) ([]model.PointOfInterest, error) {
	out := []model.PointOfInterest{}
	for _, p := range s.store.pois {
		if p.CityID == cityID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b model.PointOfInterest) int { return int(a.ID - b.ID) })
	return out, nil
}

func (s *fakeSession) GetPointOfInterest(_ context.Context, cityID, id int64) (*model.PointOfInterest, error) {
	p, ok := s.store.pois[id]
	if !ok || p.CityID != cityID {
		return nil, apperror.NotFound("point of interest", strconv.FormatInt(id, 10))
	}
	s.tracked = append(s.tracked, &p)
	return &p, nil
}

func (s *fakeSession) AddPointOfInterest(_ context.Context, cityID int64, p *model.PointOfInterest) error {
	if _, ok := s.store.cities[cityID]; !ok {
		return apperror.NotFound("city", strconv.FormatInt(cityID, 10))
	}
	p.CityID = cityID
	s.added = append(s.added, p)
	return nil
}

func (s *fakeSession) DeletePointOfInterest(p *model.PointOfInterest) {
	s.removed = append(s.removed, p)
}

func (s *fakeSession) SaveChanges(context.Context) (bool, error) {
	if s.store.saveErr != nil {
		return false, s.store.saveErr
	}
	s.store.saves++

	for _, p := range s.added {
		s.store.nextID++
		p.ID = s.store.nextID
		s.store.pois[p.ID] = *p
	}
	for _, p := range s.tracked {
		if slices.Contains(s.removed, p) {
			continue
		}
		stored := s.store.pois[p.ID]
		stored.Name, stored.Description = p.Name, p.Description
		s.store.pois[p.ID] = stored
	}
	for _, p := range s.removed {
		delete(s.store.pois, p.ID)
	}
	s.added, s.tracked, s.removed = nil, nil, nil
	return true, nil
}

// =========================================================================
// FAKE MAILER
// =========================================================================

type fakeMailer struct {
	subjects []string
	messages []string
	err      error
}

func (m *fakeMailer) Name() string { return "fake" }

func (m *fakeMailer) Send(_ context.Context, subject, message string) error {
	if m.err != nil {
		return m.err
	}
	m.subjects = append(m.subjects, subject)
	m.messages = append(m.messages, message)
	return nil
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
