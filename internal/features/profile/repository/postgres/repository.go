package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bandscope-backend/internal/features/profile/models"
	"bandscope-backend/internal/features/profile/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.ProfileRepository {
	return &postgresRepository{db: db}
}

const profileColumns = `
	id, user_id, role, display_name, avatar_url, gallery_urls, location,
	latitude, longitude, bio, links, genres, instruments, seeking,
	influences, age, roles, members, last_active_at, created_at, updated_at
`

func (r *postgresRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	members, err := json.Marshal(profile.Members)
	if err != nil {
		return fmt.Errorf("failed to encode members: %w", err)
	}

	query := `
		INSERT INTO profiles (
			id, user_id, role, display_name, avatar_url, gallery_urls, location,
			latitude, longitude, bio, links, genres, instruments, seeking,
			influences, age, roles, members, last_active_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err = r.db.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.Role, profile.DisplayName,
		profile.AvatarURL, pq.Array(profile.GalleryURLs), profile.Location,
		profile.Latitude, profile.Longitude, profile.Bio,
		pq.Array(profile.Links), pq.Array(profile.Genres),
		pq.Array(profile.Instruments), pq.Array(profile.Seeking),
		pq.Array(profile.Influences), profile.Age, pq.Array(profile.Roles),
		members, profile.LastActiveAt, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1`, profileColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id = $1`, profileColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *postgresRepository) Update(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now()

	members, err := json.Marshal(profile.Members)
	if err != nil {
		return fmt.Errorf("failed to encode members: %w", err)
	}

	query := `
		UPDATE profiles SET
			role = $2, display_name = $3, avatar_url = $4, gallery_urls = $5,
			location = $6, latitude = $7, longitude = $8, bio = $9, links = $10,
			genres = $11, instruments = $12, seeking = $13, influences = $14,
			age = $15, roles = $16, members = $17, last_active_at = $18,
			updated_at = $19
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Role, profile.DisplayName, profile.AvatarURL,
		pq.Array(profile.GalleryURLs), profile.Location, profile.Latitude,
		profile.Longitude, profile.Bio, pq.Array(profile.Links),
		pq.Array(profile.Genres), pq.Array(profile.Instruments),
		pq.Array(profile.Seeking), pq.Array(profile.Influences), profile.Age,
		pq.Array(profile.Roles), members, profile.LastActiveAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrProfileNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, excludeRole models.Role) ([]*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles ORDER BY last_active_at DESC NULLS LAST, created_at DESC`, profileColumns)
	args := []any{}
	if excludeRole != "" {
		query = fmt.Sprintf(`SELECT %s FROM profiles WHERE role <> $1 ORDER BY last_active_at DESC NULLS LAST, created_at DESC`, profileColumns)
		args = append(args, excludeRole)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *postgresRepository) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET last_active_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrProfileNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *postgresRepository) scanOne(row *sql.Row) (*models.Profile, error) {
	p, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrProfileNotFound
	}
	return p, err
}

func (r *postgresRepository) scan(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var members []byte

	err := row.Scan(
		&p.ID, &p.UserID, &p.Role, &p.DisplayName, &p.AvatarURL,
		pq.Array(&p.GalleryURLs), &p.Location, &p.Latitude, &p.Longitude,
		&p.Bio, pq.Array(&p.Links), pq.Array(&p.Genres),
		pq.Array(&p.Instruments), pq.Array(&p.Seeking),
		pq.Array(&p.Influences), &p.Age, pq.Array(&p.Roles), &members,
		&p.LastActiveAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	if len(members) > 0 {
		if err := json.Unmarshal(members, &p.Members); err != nil {
			return nil, fmt.Errorf("failed to decode members: %w", err)
		}
	}

	return p.Normalize(), nil
}
