package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/playtube/user-service/internal/domain/user/errors"
	"github.com/playtube/user-service/internal/domain/user/model"
)

type UserRepo struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewUserRepo(db *gorm.DB, timeout time.Duration) *UserRepo {
	return &UserRepo{db: db, timeout: timeout}
}

func (r *UserRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// wrap translates driver failures: uniqueness violations become
// ErrAlreadyExists, timeouts become the retryable ErrStoreUnavailable.
func wrap(err error, op string) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return customErrors.ErrAlreadyExists
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return customErrors.ErrAlreadyExists
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return customErrors.WrapStoreUnavailable(err, op)
	default:
		return customErrors.WrapInternal(err, op)
	}
}

func (r *UserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return uuid.Nil, wrap(err, "CreateUser")
	}
	return user.ID, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getOne(ctx, "GetUserByID", "id = ?", id)
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "GetUserByUsername", "username = ?", username)
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "GetUserByEmail", "email = ?", email)
}

func (r *UserRepo) GetUserByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	return r.getOne(ctx, "GetUserByIdentifier", "username = ? OR email = ?", identifier, identifier)
}

func (r *UserRepo) getOne(ctx context.Context, op string, query string, args ...interface{}) (model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var u model.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err != nil {
		return model.User{}, wrap(err, op)
	}
	return u, nil
}

func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("refresh_token", token)
	if res.Error != nil {
		return wrap(res.Error, "SetRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// Conditional update keyed on the stored value: of two racing refresh
	// calls presenting the same token, exactly one matches and rotates.
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, old).
		Update("refresh_token", next)
	if res.Error != nil {
		return wrap(res.Error, "RotateRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrRefreshReused
	}
	return nil
}
