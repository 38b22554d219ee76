package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandscope-backend/internal/features/profile/models"
	profileservice "bandscope-backend/internal/features/profile/service"
	"bandscope-backend/internal/platform/geocoding"
)

func makeProfile(name, location string, lat, lng *float64) *models.Profile {
	p := &models.Profile{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Role:        models.RoleMusician,
		DisplayName: name,
	}
	if location != "" {
		p.Location = &location
	}
	p.Latitude = lat
	p.Longitude = lng
	return p.Normalize()
}

func coord(v float64) *float64 { return &v }

func TestFilterProfilesTextMatchesNameOrLocation(t *testing.T) {
	profiles := []*models.Profile{
		makeProfile("Velvet Static", "Austin, TX", nil, nil),
		makeProfile("The Hollow Suns", "Portland, OR", nil, nil),
		makeProfile("Austin City Brass", "", nil, nil),
	}

	byLocation := FilterProfiles(profiles, &Filter{Query: "  austin "})
	require.Len(t, byLocation, 2)
	assert.Equal(t, "Velvet Static", byLocation[0].DisplayName)
	assert.Equal(t, "Austin City Brass", byLocation[1].DisplayName)

	byName := FilterProfiles(profiles, &Filter{Query: "HOLLOW"})
	require.Len(t, byName, 1)
	assert.Equal(t, "The Hollow Suns", byName[0].DisplayName)
}

func TestFilterProfilesEmptyQueryKeepsAll(t *testing.T) {
	profiles := []*models.Profile{
		makeProfile("A", "", nil, nil),
		makeProfile("B", "", nil, nil),
	}
	assert.Len(t, FilterProfiles(profiles, &Filter{Query: "   "}), 2)
}

func TestFilterProfilesRadius(t *testing.T) {
	// Center on lower Manhattan; the Brooklyn profile is well inside a
	// 25 mile ring and the Los Angeles profile is thousands of miles out.
	newYork := &Center{Lat: 40.7128, Lng: -74.0060}
	profiles := []*models.Profile{
		makeProfile("Brooklyn Duo", "Brooklyn, NY", coord(40.73), coord(-74.00)),
		makeProfile("Echo Park Trio", "Los Angeles, CA", coord(34.05), coord(-118.24)),
		makeProfile("No Pin Yet", "Somewhere", nil, nil),
	}

	got := FilterProfiles(profiles, &Filter{Center: newYork, RadiusMiles: 25})
	require.Len(t, got, 1)
	assert.Equal(t, "Brooklyn Duo", got[0].DisplayName)
}

func TestFilterProfilesRadiusBoundaryIsInclusive(t *testing.T) {
	center := &Center{Lat: 40.0, Lng: -74.0}
	// Due north of the center; sits a bit over ten miles out.
	target := makeProfile("Edge Case Quartet", "", coord(40.145), coord(-74.0))
	exact := geocoding.DistanceMiles(center.Lat, center.Lng, *target.Latitude, *target.Longitude)
	require.Greater(t, exact, 10.0)

	// A profile at exactly the radius distance is included; any radius
	// short of that distance drops it.
	atBoundary := FilterProfiles([]*models.Profile{target}, &Filter{Center: center, RadiusMiles: exact})
	assert.Len(t, atBoundary, 1)

	justInside := FilterProfiles([]*models.Profile{target}, &Filter{Center: center, RadiusMiles: exact * 0.999})
	assert.Empty(t, justInside)

	assert.Len(t, FilterProfiles([]*models.Profile{makeProfile("Dead Center", "", coord(40.0), coord(-74.0))},
		&Filter{Center: center, RadiusMiles: 10}), 1)
}

func TestFilterProfilesComposesWithAnd(t *testing.T) {
	newYork := &Center{Lat: 40.7128, Lng: -74.0060}
	profiles := []*models.Profile{
		makeProfile("Brooklyn Duo", "Brooklyn, NY", coord(40.73), coord(-74.00)),
		makeProfile("Brooklyn West", "Los Angeles, CA", coord(34.05), coord(-118.24)),
	}

	got := FilterProfiles(profiles, &Filter{Query: "brooklyn", Center: newYork, RadiusMiles: 50})
	require.Len(t, got, 1)
	assert.Equal(t, "Brooklyn Duo", got[0].DisplayName)
}

type fixedGeocoder struct {
	result *geocoding.Result
	err    error
}

func (g fixedGeocoder) Geocode(ctx context.Context, address string) (*geocoding.Result, error) {
	return g.result, g.err
}

// staticProfiles stubs only the listing path; everything else panics.
type staticProfiles struct {
	profileservice.ProfileService
	list        []*models.Profile
	gotExcluded models.Role
}

func (s *staticProfiles) List(ctx context.Context, excludeRole models.Role) ([]*models.Profile, error) {
	s.gotExcluded = excludeRole
	return s.list, nil
}

func TestSearchExcludesVenuesFromPopulation(t *testing.T) {
	profiles := &staticProfiles{list: []*models.Profile{
		makeProfile("Velvet Static", "Austin, TX", nil, nil),
	}}
	svc := NewDiscoveryService(profiles, fixedGeocoder{}, []float64{10, 25, 50, 100, 250})

	got, err := svc.Search(context.Background(), &Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, models.RoleVenue, profiles.gotExcluded)
}

func TestSearchRejectsUnknownRadius(t *testing.T) {
	svc := NewDiscoveryService(nil, fixedGeocoder{}, []float64{10, 25, 50, 100, 250})

	_, err := svc.Search(context.Background(), &Filter{
		Center:      &Center{Lat: 40, Lng: -74},
		RadiusMiles: 33,
	})
	assert.ErrorIs(t, err, ErrInvalidRadius)
}

func TestSearchRadiusWithoutCenter(t *testing.T) {
	svc := NewDiscoveryService(nil, fixedGeocoder{}, []float64{10, 25})

	_, err := svc.Search(context.Background(), &Filter{RadiusMiles: 25})
	assert.ErrorIs(t, err, ErrRadiusNeedsCenter)
}

func TestResolveCenterMapsNotFound(t *testing.T) {
	svc := NewDiscoveryService(nil, fixedGeocoder{err: geocoding.ErrNotFound}, nil)

	_, err := svc.ResolveCenter(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestResolveCenterReturnsCoordinates(t *testing.T) {
	svc := NewDiscoveryService(nil, fixedGeocoder{result: &geocoding.Result{Lat: 30.2672, Lng: -97.7431}}, nil)

	center, err := svc.ResolveCenter(context.Background(), "Austin, TX")
	require.NoError(t, err)
	assert.InDelta(t, 30.2672, center.Lat, 1e-9)
	assert.InDelta(t, -97.7431, center.Lng, 1e-9)
}
