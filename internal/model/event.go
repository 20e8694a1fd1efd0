package model

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus values. Any organizer or admin may set any status; there is no
// transition graph beyond the enum itself.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusCompleted EventStatus = "COMPLETED"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

type EventCategory string

const (
	CategoryConference EventCategory = "CONFERENCE"
	CategoryWorkshop   EventCategory = "WORKSHOP"
	CategorySeminar    EventCategory = "SEMINAR"
	CategoryNetworking EventCategory = "NETWORKING"
	CategoryConcert    EventCategory = "CONCERT"
	CategorySports     EventCategory = "SPORTS"
	CategoryOther      EventCategory = "OTHER"
)

func (c EventCategory) IsValid() bool {
	switch c {
	case CategoryConference, CategoryWorkshop, CategorySeminar,
		CategoryNetworking, CategoryConcert, CategorySports, CategoryOther:
		return true
	}
	return false
}

type Event struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Date        time.Time     `json:"date" db:"date"`
	Location    string        `json:"location" db:"location"`
	Capacity    int           `json:"capacity" db:"capacity"`
	OrganizerID uuid.UUID     `json:"organizer_id" db:"organizer_id"`
	Status      EventStatus   `json:"status" db:"status"`
	Category    EventCategory `json:"category" db:"category"`
	ImageURL    *string       `json:"image_url,omitempty" db:"image_url"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`

	// RegistrationsCount is the live PENDING+CONFIRMED count, computed by the
	// repository, never stored.
	RegistrationsCount int `json:"registrations_count" db:"-"`
}

type CreateEventInput struct {
	Title       string        `json:"title" validate:"required,min=3,max=100"`
	Description string        `json:"description" validate:"required,min=10,max=2000"`
	Date        time.Time     `json:"date" validate:"required"`
	Location    string        `json:"location" validate:"required,min=3,max=200"`
	Capacity    int           `json:"capacity" validate:"required,min=1,max=10000"`
	Category    EventCategory `json:"category" validate:"required,oneof=CONFERENCE WORKSHOP SEMINAR NETWORKING CONCERT SPORTS OTHER"`
	ImageURL    *string       `json:"imageUrl" validate:"omitempty,url"`
}

type UpdateEventInput struct {
	Title       *string        `json:"title" validate:"omitempty,min=3,max=100"`
	Description *string        `json:"description" validate:"omitempty,min=10,max=2000"`
	Date        *time.Time     `json:"date"`
	Location    *string        `json:"location" validate:"omitempty,min=3,max=200"`
	Capacity    *int           `json:"capacity" validate:"omitempty,min=1,max=10000"`
	Category    *EventCategory `json:"category" validate:"omitempty,oneof=CONFERENCE WORKSHOP SEMINAR NETWORKING CONCERT SPORTS OTHER"`
	ImageURL    *string        `json:"imageUrl" validate:"omitempty,url"`
	Status      *EventStatus   `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED CANCELLED COMPLETED"`
}

// EventFilter narrows the public events listing.
type EventFilter struct {
	Status   *EventStatus
	Category *EventCategory
	Limit    int
	Offset   int
}
