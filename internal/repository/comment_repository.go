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

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Comment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	Update(ctx context.Context, id uuid.UUID, params model.UpdateCommentInput) (*model.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CommentRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &CommentRepositoryImpl{pool: pool}
}

const commentColumns = `id, user_id, event_id, content, rating, created_at, updated_at, deleted_at`

func scanComment(row pgx.Row) (*model.Comment, error) {
	var comment model.Comment
	err := row.Scan(
		&comment.ID,
		&comment.UserID,
		&comment.EventID,
		&comment.Content,
		&comment.Rating,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&comment.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	query := `
		INSERT INTO comments (user_id, event_id, content, rating)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + commentColumns

	return scanComment(r.pool.QueryRow(ctx, query,
		comment.UserID, comment.EventID, comment.Content, comment.Rating,
	))
}

func (r *CommentRepositoryImpl) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE event_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE id = $1 AND deleted_at IS NULL
	`

	comment, err := scanComment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (r *CommentRepositoryImpl) Update(ctx context.Context, id uuid.UUID, params model.UpdateCommentInput) (*model.Comment, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	if params.Content != nil {
		sets = append(sets, fmt.Sprintf("content = $%d", argPos))
		args = append(args, *params.Content)
		argPos++
	}
	if params.Rating != nil {
		sets = append(sets, fmt.Sprintf("rating = $%d", argPos))
		args = append(args, *params.Rating)
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
		UPDATE comments
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING `+commentColumns, strings.Join(sets, ", "), argPos)

	comment, err := scanComment(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (r *CommentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE comments
		SET deleted_at = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	now := time.Now().UTC()
	result, err := r.pool.Exec(ctx, query, now, now, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}
