package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/playtube/user-service/internal/domain/user/model"
)

// Kind selects which signing secret and TTL a token is bound to.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// Claims carried by both token kinds: the stable user id as subject plus
// enough profile data to serve access-token-only requests without a store
// lookup.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

func (c Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type Issuer interface {
	IssueAccess(u model.User) (signed string, expiresAt time.Time, err error)
	IssueRefresh(u model.User) (signed string, expiresAt time.Time, err error)
	Validate(raw string, kind Kind) (Claims, error)
}
