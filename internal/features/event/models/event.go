package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a show listed by a band or venue. Events are create-only: there
// is no update or delete flow.
type Event struct {
	ID            uuid.UUID `json:"id"`
	CreatedBy     uuid.UUID `json:"created_by"` // creating profile id
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Location      *string   `json:"location"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	EventDate     string    `json:"event_date"` // YYYY-MM-DD
	EventTime     *string   `json:"event_time"`
	Price         *string   `json:"price"`
	ImageURL      *string   `json:"image_url"`
	AttendeeCount int       `json:"attendee_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	EventDate   string `json:"event_date" binding:"required"`
	EventTime   string `json:"event_time"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
}
