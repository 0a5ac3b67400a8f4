package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/playtube/user-service/internal/domain/user/errors"
	"github.com/playtube/user-service/internal/domain/user/model"
	domaintoken "github.com/playtube/user-service/internal/domain/user/token"
	"github.com/playtube/user-service/internal/infra/config"
)

// JWTIssuer signs HS256 tokens with a distinct secret per kind so that a
// leaked access token can never be replayed as a refresh token.
type JWTIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

func NewJWTIssuer(cfg *config.Config) (*JWTIssuer, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("empty signing secret"), "NewJWTIssuer")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, customErrors.WrapInternal(errors.New("access and refresh secrets must differ"), "NewJWTIssuer")
	}

	return &JWTIssuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
	}, nil
}

func (j *JWTIssuer) IssueAccess(u model.User) (string, time.Time, error) {
	return j.issue(u, j.accessSecret, j.accessTTL)
}

func (j *JWTIssuer) IssueRefresh(u model.User) (string, time.Time, error) {
	return j.issue(u, j.refreshSecret, j.refreshTTL)
}

func (j *JWTIssuer) issue(u model.User, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()

	claims := domaintoken.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JWTIssuer) Validate(raw string, kind domaintoken.Kind) (domaintoken.Claims, error) {
	secret := j.accessSecret
	if kind == domaintoken.KindRefresh {
		secret = j.refreshSecret
	}

	parsed, err := jwt.ParseWithClaims(raw, &domaintoken.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuedAt(), jwt.WithExpirationRequired())

	if err != nil || !parsed.Valid {
		return domaintoken.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*domaintoken.Claims)
	if !ok {
		return domaintoken.Claims{}, customErrors.WrapInternal(
			errors.New("claims have unexpected type"), "Validate")
	}

	if j.issuer != "" && claims.Issuer != j.issuer {
		return domaintoken.Claims{}, customErrors.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return domaintoken.Claims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}
