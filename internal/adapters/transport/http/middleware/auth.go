package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/playtube/user-service/internal/domain/user/token"
)

const userIDKey = "userID"

// RequireAuth validates the access token from the accessToken cookie or the
// Authorization header and stores the caller's id in the request context.
func RequireAuth(issuer token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie("accessToken")
		if raw == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if raw == "" {
			abortUnauthorized(c, "unauthorized request")
			return
		}

		claims, err := issuer.Validate(raw, token.KindAccess)
		if err != nil {
			abortUnauthorized(c, "invalid access token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abortUnauthorized(c, "invalid access token")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated caller id placed by RequireAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"statusCode": http.StatusUnauthorized,
		"data":       nil,
		"message":    msg,
		"success":    false,
	})
}
