package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandscope-backend/internal/features/event/models"
	"bandscope-backend/internal/features/event/repository"
	profilemodels "bandscope-backend/internal/features/profile/models"
	"bandscope-backend/internal/platform/geocoding"
)

type fakeEventRepo struct {
	created []*models.Event
	byID    map[uuid.UUID]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: map[uuid.UUID]*models.Event{}}
}

func (r *fakeEventRepo) Create(ctx context.Context, e *models.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.created = append(r.created, e)
	r.byID[e.ID] = e
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) List(ctx context.Context) ([]*models.Event, error) {
	return r.created, nil
}

func (r *fakeEventRepo) ListByCreator(ctx context.Context, profileID uuid.UUID) ([]*models.Event, error) {
	var out []*models.Event
	for _, e := range r.created {
		if e.CreatedBy == profileID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubGeocoder struct {
	result *geocoding.Result
	err    error
}

func (g *stubGeocoder) Geocode(ctx context.Context, address string) (*geocoding.Result, error) {
	return g.result, g.err
}

func profileWithRole(role profilemodels.Role) *profilemodels.Profile {
	return (&profilemodels.Profile{ID: uuid.New(), UserID: uuid.New(), Role: role, DisplayName: "P"}).Normalize()
}

func TestCreateRequiresBandOrVenue(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), &stubGeocoder{err: geocoding.ErrUnavailable})
	req := &models.CreateEventRequest{Name: "Open Mic Night", EventDate: "2026-10-01"}

	_, err := svc.Create(context.Background(), profileWithRole(profilemodels.RoleMusician), req)
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	_, err = svc.Create(context.Background(), nil, req)
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	for _, role := range []profilemodels.Role{profilemodels.RoleBand, profilemodels.RoleVenue} {
		_, err := svc.Create(context.Background(), profileWithRole(role), req)
		assert.NoError(t, err, "role %s should be allowed", role)
	}
}

func TestCreateValidatesFields(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), &stubGeocoder{err: geocoding.ErrUnavailable})
	venue := profileWithRole(profilemodels.RoleVenue)

	_, err := svc.Create(context.Background(), venue, &models.CreateEventRequest{Name: " ", EventDate: "2026-10-01"})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), venue, &models.CreateEventRequest{Name: "Show", EventDate: "October 1st"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCreateGeocodesLocationBestEffort(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewEventService(repo, &stubGeocoder{result: &geocoding.Result{Lat: 30.27, Lng: -97.74}})

	event, err := svc.Create(context.Background(), profileWithRole(profilemodels.RoleBand), &models.CreateEventRequest{
		Name:      "Album Release",
		EventDate: "2026-10-01",
		Location:  "Austin, TX",
		Price:     "$10",
	})
	require.NoError(t, err)
	require.NotNil(t, event.Latitude)
	assert.InDelta(t, 30.27, *event.Latitude, 1e-9)
	require.NotNil(t, event.Price)
	assert.Equal(t, "$10", *event.Price)

	// Geocode failure still saves the free-text location.
	svc = NewEventService(repo, &stubGeocoder{err: geocoding.ErrNotFound})
	event, err = svc.Create(context.Background(), profileWithRole(profilemodels.RoleVenue), &models.CreateEventRequest{
		Name:      "Jam Night",
		EventDate: "2026-11-05",
		Location:  "Somewhere obscure",
	})
	require.NoError(t, err)
	require.NotNil(t, event.Location)
	assert.Nil(t, event.Latitude)
	assert.Nil(t, event.Longitude)
}
