package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/playtube/user-service/internal/adapters/transport/http/dto"
	"github.com/playtube/user-service/internal/app/user/password"
	appsvc "github.com/playtube/user-service/internal/app/user/service"
	apptoken "github.com/playtube/user-service/internal/app/user/token"
	customErrors "github.com/playtube/user-service/internal/domain/user/errors"
	"github.com/playtube/user-service/internal/domain/user/model"
	"github.com/playtube/user-service/internal/infra/config"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	gets  int
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[uuid.UUID]model.User)}
}

func (u *userRepoStub) CreateUser(_ context.Context, m model.User) (uuid.UUID, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, v := range u.users {
		if v.Username == m.Username || v.Email == m.Email {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
	}
	u.users[m.ID] = m
	return m.ID, nil
}

func (u *userRepoStub) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.gets++
	v, ok := u.users[id]
	if !ok {
		return model.User{}, customErrors.ErrNotFound
	}
	return v, nil
}

func (u *userRepoStub) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	return u.find(func(v model.User) bool { return v.Username == username })
}

func (u *userRepoStub) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	return u.find(func(v model.User) bool { return v.Email == email })
}

func (u *userRepoStub) GetUserByIdentifier(_ context.Context, identifier string) (model.User, error) {
	return u.find(func(v model.User) bool {
		return v.Username == identifier || v.Email == identifier
	})
}

func (u *userRepoStub) find(match func(model.User) bool) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, v := range u.users {
		if match(v) {
			return v, nil
		}
	}
	return model.User{}, customErrors.ErrNotFound
}

func (u *userRepoStub) SetRefreshToken(_ context.Context, id uuid.UUID, token *string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.users[id]
	if !ok {
		return customErrors.ErrNotFound
	}
	v.RefreshToken = token
	u.users[id] = v
	return nil
}

func (u *userRepoStub) RotateRefreshToken(_ context.Context, id uuid.UUID, old, next string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.users[id]
	if !ok || v.RefreshToken == nil || *v.RefreshToken != old {
		return customErrors.ErrRefreshReused
	}
	v.RefreshToken = &next
	u.users[id] = v
	return nil
}

type cacheStub struct {
	profiles map[uuid.UUID]model.PublicUser
}

func (c *cacheStub) GetProfile(_ context.Context, id uuid.UUID) (model.PublicUser, bool, error) {
	p, ok := c.profiles[id]
	return p, ok, nil
}

func (c *cacheStub) SetProfile(_ context.Context, p model.PublicUser) error {
	c.profiles[p.ID] = p
	return nil
}

func (c *cacheStub) InvalidateProfile(_ context.Context, id uuid.UUID) error {
	delete(c.profiles, id)
	return nil
}

type uploaderStub struct {
	failAvatar bool
	failCover  bool
}

func (u uploaderStub) Upload(_ context.Context, localPath string) (string, error) {
	if u.failAvatar && strings.Contains(localPath, "avatar") {
		return "", errors.New("upstream unavailable")
	}
	if u.failCover && strings.Contains(localPath, "cover") {
		return "", errors.New("upstream unavailable")
	}
	return "https://media.test/" + localPath, nil
}

/* ───────────────────────────── helpers ───────────────────────────── */

func newSvc(t *testing.T, up uploaderStub) (appsvc.Service, *userRepoStub) {
	t.Helper()

	issuer, err := apptoken.NewJWTIssuer(&config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		Issuer:             "test",
	})
	require.NoError(t, err)

	ur := newUserRepoStub()
	svc := appsvc.New(
		ur,
		&cacheStub{profiles: map[uuid.UUID]model.PublicUser{}},
		issuer,
		password.NewArgon2("pepper"),
		up,
		validator.New(),
	)
	return svc, ur
}

func register(t *testing.T, svc appsvc.Service) model.PublicUser {
	t.Helper()
	view, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName:   "Ana Example",
		Email:      "a@x.com",
		Username:   "ana",
		Password:   "p1",
		AvatarPath: "ref1",
	})
	require.NoError(t, err)
	return view
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestUserService_RegisterStripsSecrets(t *testing.T) {
	svc, ur := newSvc(t, uploaderStub{})
	view := register(t, svc)

	require.Equal(t, "ana", view.Username)
	require.Equal(t, "https://media.test/ref1", view.AvatarURL)

	stored, err := ur.GetUserByID(context.Background(), view.ID)
	require.NoError(t, err)
	require.NotEqual(t, "p1", stored.PasswordHash)
	require.True(t, password.IsHashed(stored.PasswordHash))
	require.Nil(t, stored.RefreshToken)
}

func TestUserService_RegisterNormalizesCase(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})

	view, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName:   "Ana Example",
		Email:      "Ana@X.com",
		Username:   "Ana",
		Password:   "p1",
		AvatarPath: "ref1",
	})
	require.NoError(t, err)
	require.Equal(t, "ana", view.Username)
	require.Equal(t, "ana@x.com", view.Email)
}

func TestUserService_RegisterAcceptsAnyNonBlankCredentials(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})

	// Short usernames and passwords are valid; only trim-then-blank
	// validation applies.
	view, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName:   "Jo Short",
		Email:      "jo@x.com",
		Username:   "jo",
		Password:   "p1",
		AvatarPath: "ref1",
	})
	require.NoError(t, err)
	require.Equal(t, "jo", view.Username)

	_, _, err = svc.Login(context.Background(), dto.LoginDTO{Username: "jo", Password: "p1"})
	require.NoError(t, err)
}

func TestUserService_RegisterBlankFields(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})

	_, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName:   "   ",
		Email:      "a@x.com",
		Username:   "ana",
		Password:   "p1",
		AvatarPath: "ref1",
	})
	require.True(t, customErrors.IsInvalidArgument(err))
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})
	register(t, svc)

	// Same username, different case, different email.
	_, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName:   "Other",
		Email:      "other@x.com",
		Username:   "ANA",
		Password:   "p1",
		AvatarPath: "ref2",
	})
	require.True(t, customErrors.IsAlreadyExists(err))

	// Same email, different username.
	_, err = svc.Register(context.Background(), dto.RegisterDTO{
		FullName:   "Other",
		Email:      "A@x.com",
		Username:   "other",
		Password:   "p1",
		AvatarPath: "ref2",
	})
	require.True(t, customErrors.IsAlreadyExists(err))
}

func TestUserService_RegisterAvatarRequired(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})
	_, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName: "Ana Example",
		Email:    "a@x.com",
		Username: "ana",
		Password: "p1",
	})
	require.True(t, customErrors.IsAvatarRequired(err))

	svc, _ = newSvc(t, uploaderStub{failAvatar: true})
	_, err = svc.Register(context.Background(), dto.RegisterDTO{
		FullName:   "Ana Example",
		Email:      "a@x.com",
		Username:   "ana",
		Password:   "p1",
		AvatarPath: "avatar1",
	})
	require.True(t, customErrors.IsAvatarRequired(err))
}

func TestUserService_RegisterCoverDegrades(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{failCover: true})

	view, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName:       "Ana Example",
		Email:          "a@x.com",
		Username:       "ana",
		Password:       "p1",
		AvatarPath:     "ref1",
		CoverImagePath: "cover1",
	})
	require.NoError(t, err)
	require.Empty(t, view.CoverImageURL)
}

func TestUserService_LoginByUsernameAndEmail(t *testing.T) {
	svc, ur := newSvc(t, uploaderStub{})
	register(t, svc)
	ctx := context.Background()

	view, pair, err := svc.Login(ctx, dto.LoginDTO{Username: "ana", Password: "p1"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	stored, _ := ur.GetUserByID(ctx, view.ID)
	require.NotNil(t, stored.RefreshToken)
	require.Equal(t, pair.RefreshToken, *stored.RefreshToken)

	_, _, err = svc.Login(ctx, dto.LoginDTO{Email: "A@x.com", Password: "p1"})
	require.NoError(t, err)
}

func TestUserService_LoginMissingIdentifier(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})
	_, _, err := svc.Login(context.Background(), dto.LoginDTO{Password: "p1"})
	require.True(t, customErrors.IsMissingIdentifier(err))
}

func TestUserService_LoginUserNotFound(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})
	_, _, err := svc.Login(context.Background(), dto.LoginDTO{Username: "nobody", Password: "p1"})
	require.True(t, customErrors.IsNotFound(err))
}

func TestUserService_LoginWrongPassword(t *testing.T) {
	svc, ur := newSvc(t, uploaderStub{})
	view := register(t, svc)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, dto.LoginDTO{Username: "ana", Password: "wrongpass"})
	require.True(t, customErrors.IsInvalidCredentials(err))

	// No tokens issued, no store mutation.
	stored, _ := ur.GetUserByID(ctx, view.ID)
	require.Nil(t, stored.RefreshToken)
}

func TestUserService_RefreshRotation(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})
	register(t, svc)
	ctx := context.Background()

	_, r0, err := svc.Login(ctx, dto.LoginDTO{Username: "ana", Password: "p1"})
	require.NoError(t, err)

	r1, err := svc.Refresh(ctx, r0.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, r0.RefreshToken, r1.RefreshToken)

	// The pre-rotation token is permanently dead.
	_, err = svc.Refresh(ctx, r0.RefreshToken)
	require.True(t, customErrors.IsRefreshReused(err))

	r2, err := svc.Refresh(ctx, r1.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, r1.RefreshToken, r2.RefreshToken)

	_, err = svc.Refresh(ctx, r1.RefreshToken)
	require.True(t, customErrors.IsRefreshReused(err))
}

func TestUserService_RefreshAbsentOrGarbage(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})

	_, err := svc.Refresh(context.Background(), "")
	require.True(t, customErrors.IsUnauthorized(err))

	_, err = svc.Refresh(context.Background(), "garbage")
	require.True(t, customErrors.IsInvalidToken(err))
}

func TestUserService_RefreshWrongKind(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})
	register(t, svc)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, dto.LoginDTO{Username: "ana", Password: "p1"})
	require.NoError(t, err)

	// An access token must never pass as a refresh token.
	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.True(t, customErrors.IsInvalidToken(err))
}

func TestUserService_LogoutRevokesSession(t *testing.T) {
	svc, ur := newSvc(t, uploaderStub{})
	register(t, svc)
	ctx := context.Background()

	view, pair, err := svc.Login(ctx, dto.LoginDTO{Username: "ana", Password: "p1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, view.ID))

	stored, _ := ur.GetUserByID(ctx, view.ID)
	require.Nil(t, stored.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.True(t, customErrors.IsRefreshReused(err))
}

func TestUserService_LogoutUnknownUser(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})
	err := svc.Logout(context.Background(), uuid.New())
	require.True(t, customErrors.IsNotFound(err))
}

func TestUserService_CurrentUserCached(t *testing.T) {
	svc, ur := newSvc(t, uploaderStub{})
	view := register(t, svc)
	ctx := context.Background()

	first, err := svc.CurrentUser(ctx, view.ID)
	require.NoError(t, err)
	require.Equal(t, view.Username, first.Username)
	repoGets := ur.gets

	second, err := svc.CurrentUser(ctx, view.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, repoGets, ur.gets, "second lookup should be served from cache")
}

func TestUserService_CurrentUserUnknown(t *testing.T) {
	svc, _ := newSvc(t, uploaderStub{})
	_, err := svc.CurrentUser(context.Background(), uuid.New())
	require.True(t, customErrors.IsNotFound(err))
}
