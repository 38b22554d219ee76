package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"bandscope-backend/internal/features/profile/models"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	// List returns every profile except those with excludeRole; pass "" for
	// the full set.
	List(ctx context.Context, excludeRole models.Role) ([]*models.Profile, error)
	TouchLastActive(ctx context.Context, id uuid.UUID) error
}
