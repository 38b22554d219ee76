package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bandscope-backend/internal/common/logger"
	"bandscope-backend/internal/common/validation"
	"bandscope-backend/internal/features/event/models"
	"bandscope-backend/internal/features/event/repository"
	profilemodels "bandscope-backend/internal/features/profile/models"
	"bandscope-backend/internal/platform/geocoding"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrRoleNotAllowed = errors.New("only bands and venues can create events")
	ErrInvalidDate    = errors.New("event date must be YYYY-MM-DD")
)

// Geocoder resolves the optional event location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Result, error)
}

type EventService interface {
	List(ctx context.Context) ([]*models.Event, error)
	ListByCreator(ctx context.Context, profileID uuid.UUID) ([]*models.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Create(ctx context.Context, creator *profilemodels.Profile, req *models.CreateEventRequest) (*models.Event, error)
}

type eventService struct {
	repo     repository.EventRepository
	geocoder Geocoder
	log      zerolog.Logger
}

func NewEventService(repo repository.EventRepository, geocoder Geocoder) EventService {
	return &eventService{
		repo:     repo,
		geocoder: geocoder,
		log:      logger.With("event"),
	}
}

func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	return s.repo.List(ctx)
}

func (s *eventService) ListByCreator(ctx context.Context, profileID uuid.UUID) ([]*models.Event, error) {
	return s.repo.ListByCreator(ctx, profileID)
}

func (s *eventService) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// Create lists a new event for a band or venue profile. The location, when
// given, is geocoded best-effort like profile locations.
func (s *eventService) Create(ctx context.Context, creator *profilemodels.Profile, req *models.CreateEventRequest) (*models.Event, error) {
	if creator == nil || (creator.Role != profilemodels.RoleBand && creator.Role != profilemodels.RoleVenue) {
		return nil, ErrRoleNotAllowed
	}
	if err := validation.ValidateEventName(req.Name); err != nil {
		return nil, err
	}
	if err := validation.ValidateDescription(req.Description); err != nil {
		return nil, err
	}
	if _, err := time.Parse("2006-01-02", req.EventDate); err != nil {
		return nil, ErrInvalidDate
	}

	event := &models.Event{
		CreatedBy: creator.ID,
		Name:      strings.TrimSpace(req.Name),
		EventDate: req.EventDate,
	}
	if v := strings.TrimSpace(req.Description); v != "" {
		event.Description = &v
	}
	if v := strings.TrimSpace(req.EventTime); v != "" {
		event.EventTime = &v
	}
	if v := strings.TrimSpace(req.Price); v != "" {
		event.Price = &v
	}
	if v := strings.TrimSpace(req.ImageURL); v != "" {
		event.ImageURL = &v
	}

	if location := strings.TrimSpace(req.Location); location != "" {
		event.Location = &location
		if res, err := s.geocoder.Geocode(ctx, location); err == nil && res != nil {
			event.Latitude = &res.Lat
			event.Longitude = &res.Lng
		} else {
			s.log.Debug().Err(err).Str("location", location).Msg("event geocode failed, saving without coordinates")
		}
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}
