package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/playtube/user-service/internal/domain/user/model"
)

type UserRepo interface {
	// CreateUser fails with errors.ErrAlreadyExists when the storage-layer
	// uniqueness constraint on username or email is violated.
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	// GetUserByIdentifier matches either the username or the email column.
	GetUserByIdentifier(ctx context.Context, identifier string) (model.User, error)

	// SetRefreshToken overwrites the stored refresh token; nil clears it.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error

	// RotateRefreshToken replaces old with next in a single conditional
	// update. When the stored value no longer equals old the rotation lost a
	// race (or the session was revoked) and errors.ErrRefreshReused is
	// returned.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error
}

type ProfileCache interface {
	GetProfile(ctx context.Context, id uuid.UUID) (model.PublicUser, bool, error)

	SetProfile(ctx context.Context, p model.PublicUser) error

	InvalidateProfile(ctx context.Context, id uuid.UUID) error
}
