package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMusician Role = "musician"
	RoleBand     Role = "band"
	RoleVenue    Role = "venue"
)

// ValidRole reports whether r is one of the three profile roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleMusician, RoleBand, RoleVenue:
		return true
	}
	return false
}

// Member is a band member entry (band profiles only).
type Member struct {
	Name string `json:"name"`
	Age  *int   `json:"age,omitempty"`
}

// Profile is the user-facing identity record, distinct from the raw auth
// user. Exactly one profile exists per user once onboarding completes.
type Profile struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Role         Role       `json:"role"`
	DisplayName  string     `json:"display_name"`
	AvatarURL    *string    `json:"avatar_url"`
	GalleryURLs  []string   `json:"gallery_urls"`
	Location     *string    `json:"location"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Bio          *string    `json:"bio"`
	Links        []string   `json:"links"`
	Genres       []string   `json:"genres"`
	Instruments  []string   `json:"instruments"`
	Seeking      []string   `json:"seeking"`
	Influences   []string   `json:"influences"`
	Age          *int       `json:"age"`
	Roles        []string   `json:"roles"`
	Members      []Member   `json:"members"`
	LastActiveAt *time.Time `json:"last_active_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Normalize defaults every nullable collection once at the data boundary so
// downstream code never re-checks for nil slices, and repairs a one-sided
// coordinate pair (latitude and longitude are either both set or both null).
func (p *Profile) Normalize() *Profile {
	if p == nil {
		return nil
	}
	if p.Role == "" {
		p.Role = RoleMusician
	}
	if p.GalleryURLs == nil {
		p.GalleryURLs = []string{}
	}
	if p.Links == nil {
		p.Links = []string{}
	}
	if p.Genres == nil {
		p.Genres = []string{}
	}
	if p.Instruments == nil {
		p.Instruments = []string{}
	}
	if p.Seeking == nil {
		p.Seeking = []string{}
	}
	if p.Influences == nil {
		p.Influences = []string{}
	}
	if p.Roles == nil {
		p.Roles = []string{}
	}
	if p.Members == nil {
		p.Members = []Member{}
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		p.Latitude, p.Longitude = nil, nil
	}
	return p
}

// IsComplete reports whether onboarding has finished for this profile: a
// non-blank location is the completion signal.
func (p *Profile) IsComplete() bool {
	return p != nil && p.Location != nil && strings.TrimSpace(*p.Location) != ""
}

// HasCoordinates reports whether the profile was successfully geocoded.
func (p *Profile) HasCoordinates() bool {
	return p != nil && p.Latitude != nil && p.Longitude != nil
}

// SetCoordinates sets both coordinates. Written only on geocode success.
func (p *Profile) SetCoordinates(lat, lng float64) {
	p.Latitude = &lat
	p.Longitude = &lng
}

// ClearCoordinates nulls both coordinates together.
func (p *Profile) ClearCoordinates() {
	p.Latitude, p.Longitude = nil, nil
}
