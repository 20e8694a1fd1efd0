package service

import (
	"context"

	"eventgraph/internal/auth"
	"eventgraph/internal/bus"
	"eventgraph/internal/model"
	"eventgraph/internal/repository"
	"eventgraph/internal/validation"
	apperrors "eventgraph/pkg/app_errors"
)

type CommentService interface {
	ListByEvent(ctx context.Context, eventID string) ([]*model.Comment, error)
	Get(ctx context.Context, id string) (*model.Comment, error)
	Create(ctx context.Context, input model.CreateCommentInput) (*model.Comment, error)
	Update(ctx context.Context, id string, input model.UpdateCommentInput) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
}

type CommentServiceImpl struct {
	repo      repository.CommentRepository
	eventRepo repository.EventRepository
	events    *bus.Bus
}

func NewCommentService(
	repo repository.CommentRepository,
	eventRepo repository.EventRepository,
	events *bus.Bus,
) CommentService {
	return &CommentServiceImpl{repo: repo, eventRepo: eventRepo, events: events}
}

func (s *CommentServiceImpl) ListByEvent(ctx context.Context, eventID string) ([]*model.Comment, error) {
	id, err := parseID(eventID, apperrors.ErrEventNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, id)
}

func (s *CommentServiceImpl) Get(ctx context.Context, id string) (*model.Comment, error) {
	commentID, err := parseID(id, apperrors.ErrCommentNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, commentID)
}

func (s *CommentServiceImpl) Create(ctx context.Context, input model.CreateCommentInput) (*model.Comment, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	eventID, err := parseID(input.EventID, apperrors.ErrEventNotFound)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(identity.UserID, apperrors.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	// The target event must be live.
	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		return nil, err
	}

	comment, err := s.repo.Create(ctx, &model.Comment{
		UserID:  userID,
		EventID: eventID,
		Content: input.Content,
		Rating:  input.Rating,
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(bus.TopicCommentAdded, eventID.String(), comment)
	return comment, nil
}

func (s *CommentServiceImpl) Update(ctx context.Context, id string, input model.UpdateCommentInput) (*model.Comment, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	commentID, err := parseID(id, apperrors.ErrCommentNotFound)
	if err != nil {
		return nil, err
	}

	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID.String() != identity.UserID {
		return nil, apperrors.ErrUnauthorized
	}

	return s.repo.Update(ctx, commentID, input)
}

func (s *CommentServiceImpl) Delete(ctx context.Context, id string) error {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return err
	}

	commentID, err := parseID(id, apperrors.ErrCommentNotFound)
	if err != nil {
		return err
	}

	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID.String() != identity.UserID && identity.Role != model.RoleAdmin {
		return apperrors.ErrUnauthorized
	}

	return s.repo.Delete(ctx, commentID)
}
