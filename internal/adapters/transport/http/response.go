package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	customErrors "github.com/playtube/user-service/internal/domain/user/errors"
)

// APIResponse is the envelope every endpoint answers with, success or not.
type APIResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func respondError(c *gin.Context, err error) {
	switch {
	case customErrors.IsMissingIdentifier(err),
		customErrors.IsAvatarRequired(err),
		customErrors.IsInvalidArgument(err):
		respond(c, http.StatusBadRequest, nil, err.Error())
	case customErrors.IsAlreadyExists(err):
		respond(c, http.StatusConflict, nil, "user with email or username already exists")
	case customErrors.IsNotFound(err):
		respond(c, http.StatusNotFound, nil, "user does not exist")
	case customErrors.IsInvalidCredentials(err):
		respond(c, http.StatusUnauthorized, nil, "invalid credentials")
	case customErrors.IsUnauthorized(err),
		customErrors.IsInvalidToken(err),
		customErrors.IsRefreshReused(err):
		respond(c, http.StatusUnauthorized, nil, "invalid or expired token")
	case customErrors.IsStoreUnavailable(err):
		respond(c, http.StatusServiceUnavailable, nil, "temporarily unavailable, retry")
	default:
		respond(c, http.StatusInternalServerError, nil, "internal server error")
	}
	c.Error(err)
}
