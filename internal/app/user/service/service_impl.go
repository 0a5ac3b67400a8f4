package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/playtube/user-service/internal/adapters/media"
	"github.com/playtube/user-service/internal/adapters/transport/http/dto"
	"github.com/playtube/user-service/internal/app/user/password"
	customErrors "github.com/playtube/user-service/internal/domain/user/errors"
	"github.com/playtube/user-service/internal/domain/user/model"
	"github.com/playtube/user-service/internal/domain/user/repo"
	"github.com/playtube/user-service/internal/domain/user/token"
)

type userService struct {
	userRepo repo.UserRepo
	cache    repo.ProfileCache
	issuer   token.Issuer
	hasher   password.Hasher
	uploader media.Uploader
	v        *validator.Validate
}

func New(
	ur repo.UserRepo,
	cache repo.ProfileCache,
	issuer token.Issuer,
	hasher password.Hasher,
	uploader media.Uploader,
	v *validator.Validate,
) Service {
	return &userService{
		userRepo: ur, cache: cache, issuer: issuer,
		hasher: hasher, uploader: uploader, v: v,
	}
}

func (s *userService) Register(ctx context.Context, in dto.RegisterDTO) (model.PublicUser, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))

	if in.FullName == "" || in.Email == "" || in.Username == "" || strings.TrimSpace(in.Password) == "" {
		return model.PublicUser{}, customErrors.NewInvalidArgument("all fields are required")
	}
	if err := s.v.Struct(in); err != nil {
		return model.PublicUser{}, customErrors.NewInvalidArgument(err.Error())
	}

	if in.AvatarPath == "" {
		return model.PublicUser{}, customErrors.ErrAvatarRequired
	}
	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		return model.PublicUser{}, customErrors.ErrAvatarRequired
	}

	// A cover image is optional; an upload failure degrades it to absent.
	coverURL := ""
	if in.CoverImagePath != "" {
		if url, err := s.uploader.Upload(ctx, in.CoverImagePath); err == nil {
			coverURL = url
		}
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:            uuid.New(),
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  passwordHash,
	}
	if _, err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) ||
			errors.Is(err, customErrors.ErrStoreUnavailable) {
			return model.PublicUser{}, err
		}
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	return user.Public(), nil
}

func (s *userService) Login(ctx context.Context, in dto.LoginDTO) (model.PublicUser, model.TokenPair, error) {
	identifier := strings.ToLower(strings.TrimSpace(in.Username))
	if identifier == "" {
		identifier = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if identifier == "" {
		return model.PublicUser{}, model.TokenPair{}, customErrors.ErrMissingIdentifier
	}
	if err := s.v.Struct(in); err != nil {
		return model.PublicUser{}, model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := s.userRepo.GetUserByIdentifier(ctx, identifier)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.PublicUser{}, model.TokenPair{}, customErrors.ErrNotFound
	case err != nil:
		return model.PublicUser{}, model.TokenPair{}, err
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.PublicUser{}, model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	return user.Public(), pair, nil
}

func (s *userService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.SetRefreshToken(ctx, userID, nil)
}

func (s *userService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	if presented == "" {
		return model.TokenPair{}, customErrors.ErrUnauthorized
	}

	claims, err := s.issuer.Validate(presented, token.KindRefresh)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.TokenPair{}, err
	}

	// Revocation check: a well-signed token that no longer matches the
	// stored value was already rotated or logged out.
	if user.RefreshToken == nil || *user.RefreshToken != presented {
		return model.TokenPair{}, customErrors.ErrRefreshReused
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := s.userRepo.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		return model.TokenPair{}, err
	}

	return pair, nil
}

func (s *userService) CurrentUser(ctx context.Context, userID uuid.UUID) (model.PublicUser, error) {
	if s.cache != nil {
		if p, ok, err := s.cache.GetProfile(ctx, userID); err == nil && ok {
			return p, nil
		}
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}

	p := user.Public()
	if s.cache != nil {
		_ = s.cache.SetProfile(ctx, p)
	}
	return p, nil
}

func (s *userService) issuePair(user model.User) (model.TokenPair, error) {
	at, atExp, err := s.issuer.IssueAccess(user)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "IssueAccess")
	}
	rt, rtExp, err := s.issuer.IssueRefresh(user)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "IssueRefresh")
	}

	now := time.Now()

	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}
