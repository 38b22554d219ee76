package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"bandscope-backend/internal/features/event/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	// List returns events ordered by event date ascending.
	List(ctx context.Context) ([]*models.Event, error)
	ListByCreator(ctx context.Context, profileID uuid.UUID) ([]*models.Event, error)
}
