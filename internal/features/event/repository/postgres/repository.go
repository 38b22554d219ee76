package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bandscope-backend/internal/features/event/models"
	"bandscope-backend/internal/features/event/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.EventRepository {
	return &postgresRepository{db: db}
}

const eventColumns = `
	id, created_by, name, description, location, latitude, longitude,
	event_date, event_time, price, image_url, attendee_count,
	created_at, updated_at
`

func (r *postgresRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `
		INSERT INTO events (
			id, created_by, name, description, location, latitude, longitude,
			event_date, event_time, price, image_url, attendee_count,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.CreatedBy, event.Name, event.Description,
		event.Location, event.Latitude, event.Longitude, event.EventDate,
		event.EventTime, event.Price, event.ImageURL, event.AttendeeCount,
		event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)

	event, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrEventNotFound
	}
	return event, err
}

func (r *postgresRepository) List(ctx context.Context) ([]*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events ORDER BY event_date ASC, event_time ASC NULLS LAST`, eventColumns)
	return r.list(ctx, query)
}

func (r *postgresRepository) ListByCreator(ctx context.Context, profileID uuid.UUID) ([]*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE created_by = $1 ORDER BY event_date ASC`, eventColumns)
	return r.list(ctx, query, profileID)
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *postgresRepository) scan(row rowScanner) (*models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.CreatedBy, &e.Name, &e.Description, &e.Location,
		&e.Latitude, &e.Longitude, &e.EventDate, &e.EventTime, &e.Price,
		&e.ImageURL, &e.AttendeeCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return &e, nil
}
