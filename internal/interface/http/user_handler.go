package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/apidex-io/apidex/internal/application"
	"github.com/apidex-io/apidex/internal/interface/middleware"
	"github.com/apidex-io/apidex/pkg/response"
	"github.com/apidex-io/apidex/pkg/validation"
)

// UserHandler serves the authenticated profile surface.
type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// Me GET /api/auth/me
func (h *UserHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": userJSON(u)}, "profile")
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfile PUT /api/auth/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, userapp.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, userapp.ErrUsernameTaken),
			errors.Is(err, userapp.ErrEmailTaken),
			errors.Is(err, userapp.ErrUserExists):
			response.Error[any](c, http.StatusConflict, err.Error(), nil)
		case errors.Is(err, userapp.ErrInvalidEmail),
			errors.Is(err, userapp.ErrPasswordTooShort),
			errors.Is(err, userapp.ErrNoFieldsToUpdate):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		default:
			if h.Logger != nil {
				h.Logger.WithError(err).WithField("user_id", uid).Error("update profile failed")
			}
			response.Error[any](c, http.StatusInternalServerError, "failed to update profile", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": userJSON(u)}, "profile updated successfully")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword PUT /api/auth/profile/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	err := h.Svc.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, userapp.ErrWrongPassword):
			response.Error[any](c, http.StatusUnauthorized, err.Error(), nil)
		case errors.Is(err, userapp.ErrMissingFields),
			errors.Is(err, userapp.ErrPasswordTooShort):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		default:
			if h.Logger != nil {
				h.Logger.WithError(err).WithField("user_id", uid).Error("change password failed")
			}
			response.Error[any](c, http.StatusInternalServerError, "failed to change password", nil)
		}
		return
	}

	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password changed successfully")
}

// UploadAvatar POST /api/auth/profile/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing file", nil)
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, file, header.Filename, contentType)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, err.Error(), nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", uid).Error("avatar upload failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "avatar upload failed", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar updated")
}

// Search GET /api/users/search?q=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Success(c, http.StatusOK, gin.H{"results": []any{}}, "search results")
		return
	}
	results, err := h.Svc.SearchUsers(c.Request.Context(), q, 10)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("user search failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results}, "search results")
}
