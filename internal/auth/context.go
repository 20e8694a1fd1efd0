package auth

import (
	"context"

	"eventgraph/internal/model"
	apperrors "eventgraph/pkg/app_errors"
)

// Identity is the per-request derived caller, used for authorization checks.
type Identity struct {
	UserID        string
	Role          model.Role
	Authenticated bool
}

func Anonymous() Identity {
	return Identity{}
}

type contextKey struct{}

var identityKey contextKey

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Anonymous()
}

// RequireAuth returns the caller identity or ErrUnauthenticated.
func RequireAuth(ctx context.Context) (Identity, error) {
	id := IdentityFrom(ctx)
	if !id.Authenticated || id.UserID == "" {
		return Identity{}, apperrors.ErrUnauthenticated
	}
	return id, nil
}

// RequireRole requires an authenticated caller holding one of the roles.
func RequireRole(ctx context.Context, roles ...model.Role) (Identity, error) {
	id, err := RequireAuth(ctx)
	if err != nil {
		return Identity{}, err
	}
	for _, role := range roles {
		if id.Role == role {
			return id, nil
		}
	}
	return Identity{}, apperrors.ErrUnauthorized
}
