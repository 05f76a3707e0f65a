package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/dto"
	"github.com/sakif/cityinfo/internal/model"
)

// newTestPointOfInterestService seeds Paris (1) with the Eiffel Tower (10) and
// the Louvre (11), and Berlin (2) with the Brandenburg Gate (20).
func newTestPointOfInterestService(t *testing.T, enforceCityMatch bool) (*PointOfInterestService, *fakeStore, *fakeMailer) {
	t.Helper()
	store := newFakeStore()
	store.addCity(1, "Paris", "The one with that big tower.")
	store.addCity(2, "Berlin", "")
	store.addPointOfInterest(10, 1, "Eiffel Tower", "Iron")
	store.addPointOfInterest(11, 1, "The Louvre", "Museum")
	store.addPointOfInterest(20, 2, "Brandenburg Gate", "")

	mailer := &fakeMailer{}
	svc := NewPointOfInterestService(store, mailer, enforceCityMatch, testLogger(t))
	return svc, store, mailer
}

func requireFields(t *testing.T, err error, keys ...string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	require.ErrorIs(t, err, apperror.ErrValidation)
	for _, k := range keys {
		assert.Contains(t, appErr.Fields, k)
	}
	assert.Len(t, appErr.Fields, len(keys))
}

// =========================================================================
// LIST + GET
// =========================================================================

func TestPointOfInterestList(t *testing.T) {
	svc, _, _ := newTestPointOfInterestService(t, false)
	ctx := context.Background()

	pois, err := svc.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, pois, 2)

	_, err = svc.List(ctx, 999, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPointOfInterestList_EnforceCityMatch(t *testing.T) {
	svc, _, _ := newTestPointOfInterestService(t, true)
	ctx := context.Background()

	pois, err := svc.List(ctx, 2, "Berlin")
	require.NoError(t, err)
	assert.Len(t, pois, 1)

	_, err = svc.List(ctx, 1, "Berlin")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.List(ctx, 999, "Berlin")
	assert.ErrorIs(t, err, apperror.ErrForbidden, "match check runs before the existence check")
}

func TestPointOfInterestGet(t *testing.T) {
	svc, _, _ := newTestPointOfInterestService(t, false)
	ctx := context.Background()

	poi, err := svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Eiffel Tower", poi.Name)

	tests := []struct {
		name          string
		cityID, poiID int64
	}{
		{"unknown city", 999, 10},
		{"unknown point of interest", 1, 999},
		{"point of interest of another city", 2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(ctx, tt.cityID, tt.poiID)
			assert.ErrorIs(t, err, apperror.ErrNotFound)
		})
	}
}

// =========================================================================
// CREATE
// =========================================================================

func TestPointOfInterestCreate(t *testing.T) {
	svc, store, _ := newTestPointOfInterestService(t, false)
	ctx := context.Background()

	poi, err := svc.Create(ctx, 1, dto.PointOfInterestForCreation{Name: " Sacre-Coeur ", Description: "On the hill."})
	require.NoError(t, err)

	assert.NotZero(t, poi.ID)
	assert.Equal(t, int64(1), poi.CityID)
	assert.Equal(t, "Sacre-Coeur", poi.Name, "names are trimmed")

	got, err := svc.Get(ctx, 1, poi.ID)
	require.NoError(t, err)
	assert.Equal(t, *poi, *got)
	assert.Equal(t, 1, store.saves)
}

func TestPointOfInterestCreate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cityID int64
		in     dto.PointOfInterestForCreation
		fields []string
	}{
		{"missing name", 1, dto.PointOfInterestForCreation{}, []string{"name"}},
		{"whitespace name", 1, dto.PointOfInterestForCreation{Name: "   "}, []string{"name"}},
		{"name too long", 1, dto.PointOfInterestForCreation{Name: strings.Repeat("n", 51)}, []string{"name"}},
		{"description too long", 1, dto.PointOfInterestForCreation{Name: "ok", Description: strings.Repeat("d", 201)}, []string{"description"}},
		{"validation precedes city lookup", 999, dto.PointOfInterestForCreation{}, []string{"name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestPointOfInterestService(t, false)

			_, err := svc.Create(context.Background(), tt.cityID, tt.in)
			requireFields(t, err, tt.fields...)
			assert.Zero(t, store.saves)
		})
	}
}

func TestPointOfInterestCreate_UnknownCity(t *testing.T) {
	svc, store, _ := newTestPointOfInterestService(t, false)

	_, err := svc.Create(context.Background(), 999, dto.PointOfInterestForCreation{Name: "Nowhere"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, store.saves)
}

func TestPointOfInterestCreate_SaveFails(t *testing.T) {
	svc, store, _ := newTestPointOfInterestService(t, false)
	store.saveErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), 1, dto.PointOfInterestForCreation{Name: "Sacre-Coeur"})
	require.Error(t, err)

	var appErr *apperror.AppError
	assert.False(t, errors.As(err, &appErr), "persistence failures are not application errors")
}

// =========================================================================
// UPDATE
// =========================================================================

func TestPointOfInterestUpdate_ResetsOmittedDescription(t *testing.T) {
	svc, store, _ := newTestPointOfInterestService(t, false)

	err := svc.Update(context.Background(), 1, 10, dto.PointOfInterestForUpdate{Name: "La tour Eiffel"})
	require.NoError(t, err)

	assert.Equal(t, model.PointOfInterest{ID: 10, CityID: 1, Name: "La tour Eiffel"}, store.pois[10])
}

func TestPointOfInterestUpdate_Errors(t *testing.T) {
	svc, store, _ := newTestPointOfInterestService(t, false)
	ctx := context.Background()

	err := svc.Update(ctx, 999, 10, dto.PointOfInterestForUpdate{})
	requireFields(t, err, "name")

	err = svc.Update(ctx, 999, 10, dto.PointOfInterestForUpdate{Name: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = svc.Update(ctx, 2, 10, dto.PointOfInterestForUpdate{Name: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, "Eiffel Tower", store.pois[10].Name)
}

// =========================================================================
// PATCH
// =========================================================================

func TestPointOfInterestPatch_ReplaceName(t *testing.T) {
	svc, store, _ := newTestPointOfInterestService(t, false)

	err := svc.Patch(context.Background(), 1, 10,
		[]byte(`[{"op":"replace","path":"/name","value":"La tour Eiffel"}]`))
	require.NoError(t, err)

	assert.Equal(t, "La tour Eiffel", store.pois[10].Name)
	assert.Equal(t, "Iron", store.pois[10].Description, "untouched fields keep their value")
}

func TestPointOfInterestPatch_ReplaceEmptyDescription(t *testing.T) {
	svc, store, _ := newTestPointOfInterestService(t, false)

	err := svc.Patch(context.Background(), 2, 20,
		[]byte(`[{"op":"replace","path":"/description","value":"Neoclassical"}]`))
	require.NoError(t, err)
	assert.Equal(t, "Neoclassical", store.pois[20].Description)
}

func TestPointOfInterestPatch_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		patch  string
		fields []string
	}{
		{"not json", `{{`, []string{PatchDocumentKey}},
		{"unknown op", `[{"op":"frobnicate","path":"/name","value":"x"}]`, []string{PatchDocumentKey}},
		{"path does not exist", `[{"op":"replace","path":"/invalidproperty","value":"x"}]`, []string{PatchDocumentKey}},
		{"unknown member added", `[{"op":"add","path":"/rating","value":5}]`, []string{PatchDocumentKey}},
		{"failed test op", `[{"op":"test","path":"/name","value":"Louvre"}]`, []string{PatchDocumentKey}},
		{"name removed", `[{"op":"remove","path":"/name"}]`, []string{"name"}},
		{"name blanked", `[{"op":"replace","path":"/name","value":"  "}]`, []string{"name"}},
		{"description too long", `[{"op":"replace","path":"/description","value":"` + strings.Repeat("d", 201) + `"}]`, []string{"description"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestPointOfInterestService(t, false)

			err := svc.Patch(context.Background(), 1, 10, []byte(tt.patch))
			requireFields(t, err, tt.fields...)

			assert.Zero(t, store.saves)
			assert.Equal(t, "Eiffel Tower", store.pois[10].Name)
			assert.Equal(t, "Iron", store.pois[10].Description)
		})
	}
}

func TestPointOfInterestPatch_NotFound(t *testing.T) {
	svc, _, _ := newTestPointOfInterestService(t, false)
	patch := []byte(`[{"op":"replace","path":"/name","value":"x"}]`)

	assert.ErrorIs(t, svc.Patch(context.Background(), 999, 10, patch), apperror.ErrNotFound)
	assert.ErrorIs(t, svc.Patch(context.Background(), 1, 999, patch), apperror.ErrNotFound)
}

// =========================================================================
// DELETE
// =========================================================================

func TestPointOfInterestDelete(t *testing.T) {
	svc, store, mailer := newTestPointOfInterestService(t, false)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 1, 10))

	_, err := svc.Get(ctx, 1, 10)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, store.pois, int64(11), "siblings are untouched")

	require.Len(t, mailer.subjects, 1)
	assert.Equal(t, "Point of interest deleted.", mailer.subjects[0])
	assert.Equal(t, "Point of interest Eiffel Tower with id 10 was deleted.", mailer.messages[0])
}

func TestPointOfInterestDelete_MailFailureDoesNotBlock(t *testing.T) {
	svc, store, mailer := newTestPointOfInterestService(t, false)
	mailer.err = errors.New("smtp down")

	require.NoError(t, svc.Delete(context.Background(), 1, 10))
	assert.NotContains(t, store.pois, int64(10))
}

func TestPointOfInterestDelete_NotFound(t *testing.T) {
	svc, _, mailer := newTestPointOfInterestService(t, false)

	assert.ErrorIs(t, svc.Delete(context.Background(), 2, 10), apperror.ErrNotFound)
	assert.Empty(t, mailer.subjects, "nothing deleted, nothing announced")
}
