package model

import (
	"time"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "PENDING"
	RegistrationStatusConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationStatusCancelled RegistrationStatus = "CANCELLED"
	RegistrationStatusAttended  RegistrationStatus = "ATTENDED"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusConfirmed,
		RegistrationStatusCancelled, RegistrationStatusAttended:
		return true
	}
	return false
}

// HoldsSeat reports whether the status counts against event capacity.
func (s RegistrationStatus) HoldsSeat() bool {
	return s == RegistrationStatusPending || s == RegistrationStatusConfirmed
}

type Registration struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	UserID       uuid.UUID          `json:"user_id" db:"user_id"`
	EventID      uuid.UUID          `json:"event_id" db:"event_id"`
	Status       RegistrationStatus `json:"status" db:"status"`
	RegisteredAt time.Time          `json:"registered_at" db:"registered_at"`
	Notes        *string            `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time         `json:"deleted_at,omitempty" db:"deleted_at"`
}

type CreateRegistrationInput struct {
	EventID string  `json:"eventId" validate:"required"`
	Notes   *string `json:"notes" validate:"omitempty,max=500"`
}

type UpdateRegistrationInput struct {
	Status *RegistrationStatus `json:"status" validate:"omitempty,oneof=PENDING CONFIRMED CANCELLED ATTENDED"`
	Notes  *string             `json:"notes" validate:"omitempty,max=500"`
}

// RegistrationFilter narrows the registrations listing.
type RegistrationFilter struct {
	EventID *uuid.UUID
	UserID  *uuid.UUID
}
