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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RegistrationRepository interface {
	List(ctx context.Context, filter model.RegistrationFilter) ([]*model.Registration, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Registration, error)
	FindByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (*model.Registration, error)
	CountActive(ctx context.Context, eventID uuid.UUID) (int, error)
	Update(ctx context.Context, id uuid.UUID, params model.UpdateRegistrationInput) (*model.Registration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.RegistrationStatus) (*model.Registration, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, reg *model.Registration) (*model.Registration, error)
	CountActiveTx(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (int, error)
}

type RegistrationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &RegistrationRepositoryImpl{pool: pool}
}

const registrationColumns = `id, user_id, event_id, status, registered_at, notes, created_at, updated_at, deleted_at`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID,
		&reg.UserID,
		&reg.EventID,
		&reg.Status,
		&reg.RegisteredAt,
		&reg.Notes,
		&reg.CreatedAt,
		&reg.UpdatedAt,
		&reg.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Create inserts inside the caller's transaction. The partial unique index on
// (user_id, event_id) rejects a second live registration; that violation maps
// to ErrAlreadyRegistered.
func (r *RegistrationRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, reg *model.Registration) (*model.Registration, error) {
	query := `
		INSERT INTO registrations (user_id, event_id, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + registrationColumns

	created, err := scanRegistration(tx.QueryRow(ctx, query,
		reg.UserID, reg.EventID, reg.Status, reg.Notes,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	return created, nil
}

func (r *RegistrationRepositoryImpl) List(ctx context.Context, filter model.RegistrationFilter) ([]*model.Registration, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argPos := 1

	if filter.EventID != nil {
		where = append(where, fmt.Sprintf("event_id = $%d", argPos))
		args = append(args, *filter.EventID)
		argPos++
	}
	if filter.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *filter.UserID)
		argPos++
	}

	query := fmt.Sprintf(`
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE %s
		ORDER BY created_at DESC
	`, strings.Join(where, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*model.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *RegistrationRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1 AND deleted_at IS NULL
	`

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *RegistrationRepositoryImpl) FindByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1 AND event_id = $2 AND deleted_at IS NULL
	`

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, userID, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

const countActiveQuery = `
	SELECT COUNT(*)
	FROM registrations
	WHERE event_id = $1
	  AND status IN ('PENDING', 'CONFIRMED')
	  AND deleted_at IS NULL
`

func (r *RegistrationRepositoryImpl) CountActive(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, countActiveQuery, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountActiveTx counts inside the caller's transaction; with the event row
// locked the count cannot be raced by a competing insert.
func (r *RegistrationRepositoryImpl) CountActiveTx(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (int, error) {
	var count int
	if err := tx.QueryRow(ctx, countActiveQuery, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RegistrationRepositoryImpl) Update(ctx context.Context, id uuid.UUID, params model.UpdateRegistrationInput) (*model.Registration, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	if params.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.Notes != nil {
		sets = append(sets, fmt.Sprintf("notes = $%d", argPos))
		args = append(args, *params.Notes)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE registrations
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING `+registrationColumns, strings.Join(sets, ", "), argPos)

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *RegistrationRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RegistrationStatus) (*model.Registration, error) {
	query := `
		UPDATE registrations
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING ` + registrationColumns

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, status, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}
