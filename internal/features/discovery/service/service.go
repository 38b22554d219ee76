package service

import (
	"context"
	"errors"
	"strings"

	"bandscope-backend/internal/features/profile/models"
	profileservice "bandscope-backend/internal/features/profile/service"
	"bandscope-backend/internal/platform/geocoding"
)

var (
	ErrInvalidRadius     = errors.New("radius is not one of the allowed options")
	ErrLocationNotFound  = errors.New("location could not be resolved")
	ErrRadiusNeedsCenter = errors.New("radius filter requires a location")
)

// Center is a resolved search origin for the radius filter.
type Center struct {
	Lat float64
	Lng float64
}

// Filter is the discovery feed query. Zero values mean "no constraint".
type Filter struct {
	Query       string
	Center      *Center
	RadiusMiles float64
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Result, error)
}

type DiscoveryService interface {
	// Search lists the feed population and applies the filter. Text and
	// radius constraints compose with AND.
	Search(ctx context.Context, filter *Filter) ([]*models.Profile, error)
	// ResolveCenter geocodes a free-text location into a search origin.
	ResolveCenter(ctx context.Context, location string) (*Center, error)
	// ValidRadius reports whether miles is one of the configured options.
	ValidRadius(miles float64) bool
}

type discoveryService struct {
	profiles    profileservice.ProfileService
	geocoder    Geocoder
	radiusMiles []float64
}

func NewDiscoveryService(profiles profileservice.ProfileService, geocoder Geocoder, radiusOptionsMiles []float64) DiscoveryService {
	return &discoveryService{
		profiles:    profiles,
		geocoder:    geocoder,
		radiusMiles: radiusOptionsMiles,
	}
}

func (s *discoveryService) Search(ctx context.Context, filter *Filter) ([]*models.Profile, error) {
	if filter.RadiusMiles > 0 {
		if !s.ValidRadius(filter.RadiusMiles) {
			return nil, ErrInvalidRadius
		}
		if filter.Center == nil {
			return nil, ErrRadiusNeedsCenter
		}
	}

	population, err := s.profiles.List(ctx, models.RoleVenue)
	if err != nil {
		return nil, err
	}
	return FilterProfiles(population, filter), nil
}

func (s *discoveryService) ResolveCenter(ctx context.Context, location string) (*Center, error) {
	result, err := s.geocoder.Geocode(ctx, location)
	if err != nil {
		if errors.Is(err, geocoding.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &Center{Lat: result.Lat, Lng: result.Lng}, nil
}

func (s *discoveryService) ValidRadius(miles float64) bool {
	for _, option := range s.radiusMiles {
		if option == miles {
			return true
		}
	}
	return false
}

// FilterProfiles applies the feed filter in memory. The text filter matches
// a trimmed, case-insensitive substring of the display name or location; the
// radius filter keeps only geocoded profiles within RadiusMiles of Center.
// Profiles without coordinates never match a radius filter.
func FilterProfiles(profiles []*models.Profile, filter *Filter) []*models.Profile {
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	matched := make([]*models.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p == nil {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		if filter.RadiusMiles > 0 && filter.Center != nil {
			if !p.HasCoordinates() {
				continue
			}
			distance := geocoding.DistanceMiles(filter.Center.Lat, filter.Center.Lng, *p.Latitude, *p.Longitude)
			if distance > filter.RadiusMiles {
				continue
			}
		}
		matched = append(matched, p)
	}
	return matched
}

func matchesQuery(p *models.Profile, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(p.DisplayName), loweredQuery) {
		return true
	}
	if p.Location != nil && strings.Contains(strings.ToLower(*p.Location), loweredQuery) {
		return true
	}
	return false
}
