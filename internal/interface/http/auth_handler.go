package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/apidex-io/apidex/config"
	userapp "github.com/apidex-io/apidex/internal/application"
	"github.com/apidex-io/apidex/internal/interface/middleware"
	"github.com/apidex-io/apidex/pkg/helpers"
	"github.com/apidex-io/apidex/pkg/mailer"
	tpl "github.com/apidex-io/apidex/pkg/mailer/templates"
	"github.com/apidex-io/apidex/pkg/response"
	"github.com/apidex-io/apidex/pkg/validation"
)

const resetTokenTTL = 30 * time.Minute

// AuthHandler serves the unauthenticated surface: registration, login,
// token refresh and the password-reset flow.
type AuthHandler struct {
	Svc    *userapp.Service
	RDB    *redis.Client
	Logger *logrus.Logger
	Cfg    *config.Config
	Pub    *helpers.RabbitPublisher
}

func NewAuthHandler(svc *userapp.Service, rdb *redis.Client, logger *logrus.Logger, cfg *config.Config, pub *helpers.RabbitPublisher) *AuthHandler {
	return &AuthHandler{Svc: svc, RDB: rdb, Logger: logger, Cfg: cfg, Pub: pub}
}

func keyResetToken(t string) string { return "pwd:reset:token:" + t }

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (h *AuthHandler) enqueueEmail(c *gin.Context, job mailer.EmailJob) {
	if h.Pub == nil || h.Cfg == nil || !h.Cfg.MailSendEnabled {
		return
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithField("to", job.To).Warn("enqueue email failed")
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserExists):
			response.Error[any](c, http.StatusConflict, err.Error(), nil)
		case errors.Is(err, userapp.ErrMissingFields),
			errors.Is(err, userapp.ErrInvalidEmail),
			errors.Is(err, userapp.ErrPasswordTooShort):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		default:
			if h.Logger != nil {
				h.Logger.WithError(err).Error("register failed")
			}
			response.Error[any](c, http.StatusInternalServerError, "registration failed", nil)
		}
		return
	}

	h.enqueueEmail(c, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.Welcome,
		Data:     map[string]any{"Username": u.Username},
	})

	response.Success(c, http.StatusCreated, gin.H{
		"user":          userJSON(u),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "user registered successfully")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrMissingFields) {
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		// One message for unknown email and wrong password.
		response.Error[any](c, http.StatusUnauthorized, userapp.ErrInvalidCredentials.Error(), nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":          userJSON(u),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "login successful")
}

// Refresh POST /api/auth/refresh
// The refresh token travels in the Authorization header like an access token
// would, or in the body as refresh_token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	access, exp, err := h.Svc.Refresh(token)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"access_token": access,
		"expires_at":   exp,
	}, "token refreshed")
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetInit POST /api/auth/reset/init
// Always answers 200 so account existence is not leaked.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if h.RDB == nil {
		response.Error[any](c, http.StatusInternalServerError, "reset unavailable", nil)
		return
	}

	if u, err := h.Svc.Repo.GetByEmail(c.Request.Context(), req.Email); err == nil && u != nil {
		tok, err := genToken(32)
		if err != nil {
			response.Error[any](c, http.StatusInternalServerError, "token generation failed", nil)
			return
		}
		h.RDB.Set(c.Request.Context(), keyResetToken(tok), u.ID, resetTokenTTL)
		link := h.Cfg.ResetPasswordURL + "?token=" + tok
		h.enqueueEmail(c, mailer.EmailJob{
			To:       u.Email,
			Template: tpl.ResetPassword,
			Data: map[string]any{
				"Username":  u.Username,
				"ResetURL":  link,
				"ExpiresIn": "30 minutes",
				"IP":        clientIP(c),
			},
		})
	}

	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "if the account exists, a reset link has been sent")
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

// ResetConfirm POST /api/auth/reset/confirm
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if h.RDB == nil {
		response.Error[any](c, http.StatusInternalServerError, "reset unavailable", nil)
		return
	}

	uid, err := h.RDB.Get(c.Request.Context(), keyResetToken(req.Token)).Result()
	if err != nil || uid == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), uid, req.NewPassword); err != nil {
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	h.RDB.Del(c.Request.Context(), keyResetToken(req.Token))

	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated")
}
