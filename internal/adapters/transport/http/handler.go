package http

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playtube/user-service/internal/adapters/transport/http/dto"
	"github.com/playtube/user-service/internal/adapters/transport/http/middleware"
	"github.com/playtube/user-service/internal/app/user/service"
	"github.com/playtube/user-service/internal/domain/user/model"
	"github.com/playtube/user-service/internal/domain/user/token"
	"github.com/playtube/user-service/internal/infra/config"
)

type Handler struct {
	svc          service.Service
	cookieDomain string
}

func NewRouter(svc service.Service, issuer token.Issuer, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	h := &Handler{svc: svc, cookieDomain: cfg.CookieDomain}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: cfg.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	users := router.Group("/api/v1/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.Refresh)

	authed := users.Group("", middleware.RequireAuth(issuer))
	authed.POST("/logout", h.Logout)
	authed.GET("/current-user", h.CurrentUser)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	return router
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBind(&body); err != nil {
		respond(c, http.StatusBadRequest, nil, err.Error())
		return
	}

	if path, cleanup, ok := saveUpload(c, "avatar"); ok {
		defer cleanup()
		body.AvatarPath = path
	}
	if path, cleanup, ok := saveUpload(c, "coverImage"); ok {
		defer cleanup()
		body.CoverImagePath = path
	}

	view, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, view, "user registered successfully")
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respond(c, http.StatusBadRequest, nil, err.Error())
		return
	}

	view, pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	respond(c, http.StatusOK, gin.H{
		"user":         view,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

func (h *Handler) Logout(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respond(c, http.StatusUnauthorized, nil, "unauthorized request")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	h.clearTokenCookies(c)
	respond(c, http.StatusOK, nil, "user logged out successfully")
}

func (h *Handler) Refresh(c *gin.Context) {
	presented, _ := c.Cookie("refreshToken")
	if presented == "" {
		var body dto.RefreshDTO
		if err := c.ShouldBindJSON(&body); err == nil {
			presented = body.RefreshToken
		}
	}

	pair, err := h.svc.Refresh(c.Request.Context(), presented)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	respond(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "access token refreshed")
}

func (h *Handler) CurrentUser(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respond(c, http.StatusUnauthorized, nil, "unauthorized request")
		return
	}

	view, err := h.svc.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, view, "current user fetched successfully")
}

func (h *Handler) setTokenCookies(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		"accessToken",
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cookieDomain,
		true, // secure
		true, // httpOnly
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		"refreshToken",
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		h.cookieDomain,
		true,
		true,
	)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetCookie("accessToken", "", -1, "/", h.cookieDomain, true, true)
	c.SetCookie("refreshToken", "", -1, "/", h.cookieDomain, true, true)
}

// saveUpload stores a multipart file in the OS temp dir so the media
// collaborator can read it; cleanup removes it after the request.
func saveUpload(c *gin.Context, field string) (string, func(), bool) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil, false
	}
	return persistUpload(c, file)
}

func persistUpload(c *gin.Context, file *multipart.FileHeader) (string, func(), bool) {
	dst := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", nil, false
	}
	return dst, func() { _ = os.Remove(dst) }, true
}
