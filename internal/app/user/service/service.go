package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/playtube/user-service/internal/adapters/transport/http/dto"
	"github.com/playtube/user-service/internal/domain/user/model"
)

// Service coordinates the session lifecycle: credential verification,
// token-pair issuance, rotation and revocation against the stored
// refresh token.
type Service interface {
	Register(ctx context.Context, in dto.RegisterDTO) (model.PublicUser, error)
	Login(ctx context.Context, in dto.LoginDTO) (model.PublicUser, model.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, presented string) (model.TokenPair, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (model.PublicUser, error)
}
