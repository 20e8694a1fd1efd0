package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventgraph/internal/model"
	apperrors "eventgraph/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*model.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, id uuid.UUID, params model.UpdateEventInput) (*model.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Transaction methods
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Event, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{pool: pool}
}

const eventColumns = `e.id, e.title, e.description, e.date, e.location, e.capacity,
		e.organizer_id, e.status, e.category, e.image_url,
		e.created_at, e.updated_at, e.deleted_at`

// registrationsCountExpr is the live-registration aggregate attached to every
// event read. Only PENDING and CONFIRMED rows hold a seat.
const registrationsCountExpr = `(
		SELECT COUNT(*) FROM registrations r
		WHERE r.event_id = e.id
		  AND r.status IN ('PENDING', 'CONFIRMED')
		  AND r.deleted_at IS NULL
	)`

func scanEvent(row pgx.Row, withCount bool) (*model.Event, error) {
	var event model.Event
	dest := []interface{}{
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.Location,
		&event.Capacity,
		&event.OrganizerID,
		&event.Status,
		&event.Category,
		&event.ImageURL,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.DeletedAt,
	}
	if withCount {
		dest = append(dest, &event.RegistrationsCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (title, description, date, location, capacity, organizer_id, status, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + strings.ReplaceAll(eventColumns, "e.", "") + `, 0`

	return scanEvent(r.pool.QueryRow(ctx, query,
		event.Title, event.Description, event.Date, event.Location,
		event.Capacity, event.OrganizerID, event.Status, event.Category, event.ImageURL,
	), true)
}

func (r *EventRepositoryImpl) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	where := []string{"e.deleted_at IS NULL"}
	args := []interface{}{}
	argPos := 1

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("e.status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Category != nil {
		where = append(where, fmt.Sprintf("e.category = $%d", argPos))
		args = append(args, *filter.Category)
		argPos++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT `+eventColumns+`, `+registrationsCountExpr+`
		FROM events e
		WHERE %s
		ORDER BY e.date ASC
		LIMIT $%d OFFSET $%d
	`, strings.Join(where, " AND "), argPos, argPos+1)

	return r.queryEvents(ctx, query, args...)
}

func (r *EventRepositoryImpl) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `, ` + registrationsCountExpr + `
		FROM events e
		WHERE e.organizer_id = $1 AND e.deleted_at IS NULL
		ORDER BY e.created_at DESC
	`
	return r.queryEvents(ctx, query, organizerID)
}

func (r *EventRepositoryImpl) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*model.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows, true)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `, ` + registrationsCountExpr + `
		FROM events e
		WHERE e.id = $1 AND e.deleted_at IS NULL
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// FindByIDForUpdate locks the event row so concurrent registrations for the
// same event serialize on it. Must run inside a transaction.
func (r *EventRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.id = $1 AND e.deleted_at IS NULL
		FOR UPDATE
	`

	event, err := scanEvent(tx.QueryRow(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) Update(ctx context.Context, id uuid.UUID, params model.UpdateEventInput) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	appendSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Title != nil {
		appendSet("title", *params.Title)
	}
	if params.Description != nil {
		appendSet("description", *params.Description)
	}
	if params.Date != nil {
		appendSet("date", *params.Date)
	}
	if params.Location != nil {
		appendSet("location", *params.Location)
	}
	if params.Capacity != nil {
		appendSet("capacity", *params.Capacity)
	}
	if params.Category != nil {
		appendSet("category", *params.Category)
	}
	if params.ImageURL != nil {
		appendSet("image_url", *params.ImageURL)
	}
	if params.Status != nil {
		appendSet("status", *params.Status)
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	appendSet("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events e
		SET %s
		WHERE e.id = $%d AND e.deleted_at IS NULL
		RETURNING `+eventColumns+`, `+registrationsCountExpr,
		strings.Join(sets, ", "), argPos)

	event, err := scanEvent(r.pool.QueryRow(ctx, query, args...), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE events
		SET deleted_at = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	now := time.Now().UTC()
	result, err := r.pool.Exec(ctx, query, now, now, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}
