package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bandscope-backend/internal/common/logger"
	"bandscope-backend/internal/common/validation"
	"bandscope-backend/internal/features/profile/models"
	"bandscope-backend/internal/features/profile/repository"
	"bandscope-backend/internal/platform/geocoding"
	"bandscope-backend/internal/platform/storage"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidRole     = errors.New("invalid profile role")
)

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Result, error)
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, bucket, objectPath, contentType string, data io.Reader) (string, error)
}

// BucketProvisioner idempotently creates the avatars bucket.
type BucketProvisioner interface {
	EnsureAvatarsBucket(ctx context.Context, accessToken string) error
}

// FeedCache is the short-lived discovery snapshot; may be absent.
type FeedCache interface {
	Get(ctx context.Context) ([]*models.Profile, error)
	Set(ctx context.Context, profiles []*models.Profile) error
	Invalidate(ctx context.Context) error
}

// RetryConfig bounds the fetch-on-absence retry loop. A profile row may be
// created by a backend trigger shortly after the auth user, so absence right
// after signup is usually transient.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

type ProfileService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	// GetByUserIDWithRetry returns nil (not an error) when no row exists
	// after the retry bound; background fetches degrade rather than throw.
	GetByUserIDWithRetry(ctx context.Context, userID uuid.UUID) *models.Profile
	List(ctx context.Context, excludeRole models.Role) ([]*models.Profile, error)
	Upsert(ctx context.Context, userID uuid.UUID, req *models.UpsertProfileRequest) (*models.Profile, error)
	UploadAvatar(ctx context.Context, accessToken string, userID uuid.UUID, filename, contentType string, data io.Reader) (*models.Profile, error)
	TouchLastActive(ctx context.Context, id uuid.UUID) error
}

type profileService struct {
	repo         repository.ProfileRepository
	cache        FeedCache
	geocoder     Geocoder
	uploader     Uploader
	provisioner  BucketProvisioner
	avatarBucket string
	retry        RetryConfig
	log          zerolog.Logger
}

func NewProfileService(
	repo repository.ProfileRepository,
	cache FeedCache,
	geocoder Geocoder,
	uploader Uploader,
	provisioner BucketProvisioner,
	avatarBucket string,
	retry RetryConfig,
) ProfileService {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	return &profileService{
		repo:         repo,
		cache:        cache,
		geocoder:     geocoder,
		uploader:     uploader,
		provisioner:  provisioner,
		avatarBucket: avatarBucket,
		retry:        retry,
		log:          logger.With("profile"),
	}
}

func (s *profileService) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p.Normalize(), nil
}

func (s *profileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p.Normalize(), nil
}

func (s *profileService) GetByUserIDWithRetry(ctx context.Context, userID uuid.UUID) *models.Profile {
	for attempt := 0; attempt < s.retry.Attempts; attempt++ {
		p, err := s.repo.GetByUserID(ctx, userID)
		if err == nil {
			return p.Normalize()
		}
		if !errors.Is(err, repository.ErrProfileNotFound) {
			s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("profile fetch failed")
			return nil
		}
		if attempt < s.retry.Attempts-1 {
			select {
			case <-time.After(s.retry.Delay):
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

func (s *profileService) List(ctx context.Context, excludeRole models.Role) ([]*models.Profile, error) {
	// Only the full-feed shape (venues excluded) is cached; other calls go
	// straight through.
	cacheable := s.cache != nil && excludeRole == models.RoleVenue
	if cacheable {
		if cached, err := s.cache.Get(ctx); err == nil {
			return cached, nil
		}
	}

	profiles, err := s.repo.List(ctx, excludeRole)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		p.Normalize()
	}

	if cacheable {
		if err := s.cache.Set(ctx, profiles); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache profile feed")
		}
	}
	return profiles, nil
}

// Upsert creates or replaces the caller's profile from an onboarding/edit
// submission. The location is geocoded best-effort: a geocoding failure
// never blocks saving the free-text location itself.
func (s *profileService) Upsert(ctx context.Context, userID uuid.UUID, req *models.UpsertProfileRequest) (*models.Profile, error) {
	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		return nil, err
	}
	if err := validation.ValidateLocation(req.Location); err != nil {
		return nil, err
	}
	if err := validation.ValidateBio(req.Bio); err != nil {
		return nil, err
	}
	if req.Role != "" && !models.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}

	p := &models.Profile{
		UserID:      userID,
		Role:        req.Role,
		DisplayName: strings.TrimSpace(req.DisplayName),
		GalleryURLs: req.GalleryURLs,
		Links:       req.Links,
		Genres:      req.Genres,
		Instruments: req.Instruments,
		Seeking:     req.Seeking,
		Influences:  req.Influences,
		Age:         req.Age,
		Roles:       req.Roles,
		Members:     req.Members,
	}
	if existing != nil {
		p.ID = existing.ID
		p.AvatarURL = existing.AvatarURL
		p.CreatedAt = existing.CreatedAt
		if p.Role == "" {
			p.Role = existing.Role
		}
	}

	if v := strings.TrimSpace(req.Bio); v != "" {
		p.Bio = &v
	}

	location := strings.TrimSpace(req.Location)
	if location != "" {
		loc := location
		p.Location = &loc
		s.geocodeLocation(ctx, p, existing, location)
	}

	now := time.Now()
	p.LastActiveAt = &now
	p.Normalize()

	if existing == nil {
		err = s.repo.Create(ctx, p)
	} else {
		err = s.repo.Update(ctx, p)
	}
	if err != nil {
		return nil, err
	}

	s.invalidateFeed(ctx)
	return p, nil
}

// geocodeLocation fills in coordinates for a saved location. On failure it
// carries forward the previous coordinates when the location text did not
// change, and otherwise leaves both null.
func (s *profileService) geocodeLocation(ctx context.Context, p, existing *models.Profile, location string) {
	res, err := s.geocoder.Geocode(ctx, location)
	if err == nil && res != nil {
		p.SetCoordinates(res.Lat, res.Lng)
		return
	}
	s.log.Debug().Err(err).Str("location", location).Msg("geocode failed, saving without coordinates")

	if existing != nil && existing.Location != nil && *existing.Location == location && existing.HasCoordinates() {
		p.SetCoordinates(*existing.Latitude, *existing.Longitude)
	}
}

// UploadAvatar stores the image and records its public URL. A missing
// bucket triggers one provisioning round-trip and a single retry.
func (s *profileService) UploadAvatar(ctx context.Context, accessToken string, userID uuid.UUID, filename, contentType string, data io.Reader) (*models.Profile, error) {
	p, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Buffer the image so the upload can be replayed after provisioning.
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}

	objectPath := fmt.Sprintf("%s/%d%s", userID, time.Now().UnixMilli(), path.Ext(filename))

	url, err := s.uploader.Upload(ctx, s.avatarBucket, objectPath, contentType, bytes.NewReader(raw))
	if errors.Is(err, storage.ErrBucketNotFound) {
		if provErr := s.provisioner.EnsureAvatarsBucket(ctx, accessToken); provErr != nil {
			return nil, fmt.Errorf("avatar bucket provisioning failed: %w", provErr)
		}
		url, err = s.uploader.Upload(ctx, s.avatarBucket, objectPath, contentType, bytes.NewReader(raw))
	}
	if err != nil {
		return nil, err
	}

	p.AvatarURL = &url
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.invalidateFeed(ctx)
	return p, nil
}

func (s *profileService) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	return s.repo.TouchLastActive(ctx, id)
}

func (s *profileService) invalidateFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate profile feed cache")
	}
}
