package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/apidex-io/apidex/internal/interface/http"
	"github.com/apidex-io/apidex/internal/interface/middleware"
	"github.com/apidex-io/apidex/pkg/helpers"
)

// APIModule wires the API catalog endpoints. Everything is protected.
type APIModule struct {
	Handler *handlers.APIHandler
	JWT     *helpers.JWTManager
}

func NewAPIModule(h *handlers.APIHandler, jwt *helpers.JWTManager) *APIModule {
	return &APIModule{Handler: h, JWT: jwt}
}

func (m *APIModule) Register(rg *gin.RouterGroup) {
	apis := rg.Group("/apis")
	apis.Use(middleware.Auth(m.JWT))
	{
		apis.GET("", m.Handler.List)
		apis.POST("", m.Handler.Create)
		apis.GET("/:id", m.Handler.Get)
		apis.PUT("/:id", m.Handler.Update)
		apis.DELETE("/:id", m.Handler.Delete)
	}
}
