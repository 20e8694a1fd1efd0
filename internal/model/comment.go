package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	EventID   uuid.UUID  `json:"event_id" db:"event_id"`
	Content   string     `json:"content" db:"content"`
	Rating    *int       `json:"rating,omitempty" db:"rating"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

type CreateCommentInput struct {
	EventID string `json:"eventId" validate:"required"`
	Content string `json:"content" validate:"required,min=1,max=1000"`
	Rating  *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

type UpdateCommentInput struct {
	Content *string `json:"content" validate:"omitempty,min=1,max=1000"`
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
}
