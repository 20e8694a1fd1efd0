package service

import (
	"context"
	"errors"

	"eventgraph/internal/auth"
	"eventgraph/internal/model"
	"eventgraph/internal/repository"
	"eventgraph/internal/validation"
	apperrors "eventgraph/pkg/app_errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, input model.RegisterInput) (*model.AuthPayload, error)
	Login(ctx context.Context, input model.LoginInput) (*model.AuthPayload, error)
	Me(ctx context.Context) (*model.User, error)
	Users(ctx context.Context) ([]*model.User, error)
	User(ctx context.Context, id string) (*model.User, error)
}

type AuthServiceImpl struct {
	repo   repository.UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(repo repository.UserRepository, tokens *auth.TokenManager) AuthService {
	return &AuthServiceImpl{repo: repo, tokens: tokens}
}

func (s *AuthServiceImpl) Register(ctx context.Context, input model.RegisterInput) (*model.AuthPayload, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	_, err := s.repo.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, apperrors.ErrEmailTaken
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := model.RoleUser
	if input.Role != nil {
		role = *input.Role
	}

	user, err := s.repo.Create(ctx, &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &model.AuthPayload{Token: token, User: user}, nil
}

// Login deliberately returns the same error for an unknown email and a wrong
// password so user existence never leaks.
func (s *AuthServiceImpl) Login(ctx context.Context, input model.LoginInput) (*model.AuthPayload, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &model.AuthPayload{Token: token, User: user}, nil
}

func (s *AuthServiceImpl) Me(ctx context.Context) (*model.User, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	id, err := parseID(identity.UserID, apperrors.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *AuthServiceImpl) Users(ctx context.Context) ([]*model.User, error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *AuthServiceImpl) User(ctx context.Context, id string) (*model.User, error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}

	userID, err := parseID(id, apperrors.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}

// parseID converts an opaque client-supplied id. A malformed id behaves
// exactly like a missing record.
func parseID(raw string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
