package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/duskmire/auth-service/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	// Username and email lookups are case-insensitive.
	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error
}
