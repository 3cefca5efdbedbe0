package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/apidex-io/apidex/internal/interface/http"
	"github.com/apidex-io/apidex/internal/interface/middleware"
	"github.com/apidex-io/apidex/pkg/helpers"
)

// AuthModule wires the account endpoints.
// Public: register, login, refresh, password reset.
// Protected: me, profile update, password change, avatar upload.
type AuthModule struct {
	Auth *handlers.AuthHandler
	User *handlers.UserHandler
	JWT  *helpers.JWTManager
}

func NewAuthModule(auth *handlers.AuthHandler, user *handlers.UserHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Auth: auth, User: user, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/register", m.Auth.Register)
	rg.POST("/auth/login", m.Auth.Login)
	rg.POST("/auth/refresh", m.Auth.Refresh)
	rg.POST("/auth/reset/init", m.Auth.ResetInit)
	rg.POST("/auth/reset/confirm", m.Auth.ResetConfirm)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	{
		auth.GET("/auth/me", m.User.Me)
		auth.PUT("/auth/profile", m.User.UpdateProfile)
		auth.PUT("/auth/profile/password", m.User.ChangePassword)
		auth.POST("/auth/profile/avatar", m.User.UploadAvatar)
		auth.GET("/users/search", m.User.Search)
	}
}
